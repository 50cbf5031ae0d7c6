package pricing

import (
	"galapagosrental/internal/db"

	"github.com/shopspring/decimal"
)

const (
	PickupSantaCruz = "santa-cruz"
	PickupHotel     = "hotel"

	IslandSantaCruz    = "santa-cruz"
	IslandSanCristobal = "san-cristobal"

	// GroupSize is the number of units covered by one return fee charge.
	GroupSize = 3
)

// DefaultHotelFee is the flat hotel pickup surcharge in USD.
var DefaultHotelFee = decimal.NewFromInt(5)

// Schedule holds the rental window and logistics shared by every cart item.
type Schedule struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	ReturnIsland string `json:"returnIsland"`
	Pickup       string `json:"pickup"`
	HotelName    string `json:"hotelName"`
}

type Line struct {
	Product  db.Product
	Quantity int
}

// Options tunes Calculate. A nil HotelFee means DefaultHotelFee; zero is a valid fee.
type Options struct {
	HotelFee *decimal.Decimal
}

type LineQuote struct {
	ProductID   int             `json:"product_id"`
	ProductType string          `json:"product_type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Days        int             `json:"days"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Margin      decimal.Decimal `json:"margin"`
}

// Quote is every amount shown to the customer and persisted on the order.
type Quote struct {
	Days             int             `json:"days"`
	TotalItems       int             `json:"total_items"`
	Lines            []LineQuote     `json:"lines"`
	ProductsSubtotal decimal.Decimal `json:"products_subtotal"`
	ReturnFee        decimal.Decimal `json:"return_fee"`
	HotelFee         decimal.Decimal `json:"hotel_fee"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	InitialPayment   decimal.Decimal `json:"initial_payment"`
	PayOnPickup      decimal.Decimal `json:"pay_on_pickup"`
}

// TotalQuantity sums the quantity over all lines, ignoring non-positive ones.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, l := range lines {
		if l.Quantity > 0 {
			total += l.Quantity
		}
	}
	return total
}

// ReturnSurcharge charges the matching island return fee once per started group of three units.
func ReturnSurcharge(fees []db.AdditionalFee, returnIsland string, totalItems int) decimal.Decimal {
	if returnIsland == "" || totalItems <= 0 {
		return decimal.Zero
	}
	for _, f := range fees {
		if !f.Active || f.FeeType != db.FeeTypeIslandReturn || f.Location != returnIsland {
			continue
		}
		groups := (totalItems + GroupSize - 1) / GroupSize
		return f.Amount.Mul(decimal.NewFromInt(int64(groups)))
	}
	return decimal.Zero
}

// HotelSurcharge returns fee for any pickup other than the Santa Cruz shop.
// Callers default an empty pickup to the shop before pricing.
func HotelSurcharge(pickup string, fee decimal.Decimal) decimal.Decimal {
	if pickup == PickupSantaCruz {
		return decimal.Zero
	}
	return fee
}

// Calculate prices a cart snapshot against the fee schedule.
func Calculate(sched Schedule, lines []Line, fees []db.AdditionalFee, opts Options) Quote {
	hotelFee := DefaultHotelFee
	if opts.HotelFee != nil {
		hotelFee = *opts.HotelFee
	}

	days := RentalDays(sched.StartDate, sched.EndDate, sched.StartTime, sched.EndTime)
	q := Quote{
		Days:             days,
		TotalItems:       TotalQuantity(lines),
		ProductsSubtotal: decimal.Zero,
		Tax:              decimal.Zero,
	}

	margin := decimal.Zero
	d := decimal.NewFromInt(int64(days))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal := l.Product.PublicPrice.Mul(qty).Mul(d)
		lineMargin := l.Product.PublicPrice.Sub(l.Product.SupplierCost).Mul(qty).Mul(d)
		lq := LineQuote{
			ProductID:   l.Product.ID,
			ProductType: l.Product.Type,
			UnitPrice:   l.Product.PublicPrice,
			Quantity:    l.Quantity,
			Days:        days,
			Subtotal:    subtotal,
			Tax:         subtotal.Mul(l.Product.TaxPercentage),
			Margin:      lineMargin,
		}
		q.Lines = append(q.Lines, lq)
		q.ProductsSubtotal = q.ProductsSubtotal.Add(lq.Subtotal)
		q.Tax = q.Tax.Add(lq.Tax)
		margin = margin.Add(lineMargin)
	}

	q.ReturnFee = ReturnSurcharge(fees, sched.ReturnIsland, q.TotalItems)
	q.HotelFee = decimal.Zero
	if q.TotalItems > 0 {
		q.HotelFee = HotelSurcharge(sched.Pickup, hotelFee)
	}
	q.Total = q.ProductsSubtotal.Add(q.ReturnFee).Add(q.Tax).Add(q.HotelFee)

	// Clamped on the aggregate margin, not per line.
	if margin.IsNegative() {
		margin = decimal.Zero
	}
	q.InitialPayment = margin.Add(q.HotelFee)
	q.PayOnPickup = q.Total.Sub(q.InitialPayment)
	return q
}

// Money formats an amount for display with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
