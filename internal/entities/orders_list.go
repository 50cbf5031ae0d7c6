package entities

import "galapagosrental/internal/db"

type OrdersList struct {
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Orders []db.RentalOrder `json:"orders"`
}
