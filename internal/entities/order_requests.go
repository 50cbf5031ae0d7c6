package entities

type StatusRequest struct {
	Status int `json:"status"`
}

// SizesRequest maps item id to one size per unit.
type SizesRequest struct {
	Sizes map[int][]string `json:"sizes"`
}

type ReviewRequest struct {
	Text  string `json:"text"`
	Stars int    `json:"stars"`
}

type CartItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
