package payment

// ApprovedStatusDetail is the gateway's status_detail for an approved transaction.
const ApprovedStatusDetail = 3

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type OrderInfo struct {
	Amount           float64 `json:"amount"`
	Description      string  `json:"description"`
	Vat              float64 `json:"vat"`
	DevReference     string  `json:"dev_reference"`
	InstallmentsType int     `json:"installments_type"`
	TaxableAmount    float64 `json:"taxable_amount"`
	TaxPercentage    float64 `json:"tax_percentage"`
}

type ReferenceRequest struct {
	Locale string    `json:"locale"`
	Order  OrderInfo `json:"order"`
	User   User      `json:"user"`
}

type ReferenceResponse struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

type Transaction struct {
	Status            string  `json:"status"`
	StatusDetail      int     `json:"status_detail"`
	Amount            float64 `json:"amount"`
	AuthorizationCode string  `json:"authorization_code"`
	DevReference      string  `json:"dev_reference"`
	ID                string  `json:"id"`
	Message           string  `json:"message"`
}

type Card struct {
	Bin  string `json:"bin"`
	Type string `json:"type"`
}

// Response is the payload the checkout widget hands back after the card form closes.
type Response struct {
	Transaction Transaction `json:"transaction"`
	Card        Card        `json:"card"`
}

// Approved reports whether the widget response is a successful charge.
func (r Response) Approved() bool {
	return r.Transaction.StatusDetail == ApprovedStatusDetail
}

type RefundResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}
