package db

import (
	"time"

	"galapagosrental/internal/lifecycle"

	"github.com/shopspring/decimal"
)

const (
	ProductTypeWetsuit = "wetsuit"
	ProductTypeSnorkel = "snorkel"
	ProductTypeFins    = "fins"

	FeeTypeIslandReturn = "island_return_fee"
	FeeTypeLateReturn   = "late_return_fee"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"

	TemplateTypeCustomer      = "customer"
	TemplateTypeBusinessOwner = "business_owner"
	TemplateTypeSupplier      = "supplier"
	TemplateTypeReview        = "review_request"
)

type Product struct {
	ID            int             `json:"id"`
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype,omitempty"`
	NameEs        string          `json:"name_es"`
	NameEn        string          `json:"name_en"`
	DescriptionEs string          `json:"description_es"`
	DescriptionEn string          `json:"description_en"`
	PublicPrice   decimal.Decimal `json:"public_price"`
	SupplierCost  decimal.Decimal `json:"supplier_cost"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	Active        bool            `json:"active"`
}

// Name returns the localized product name, falling back to Spanish.
func (p Product) Name(lang string) string {
	if lang == "en" && p.NameEn != "" {
		return p.NameEn
	}
	return p.NameEs
}

type AdditionalFee struct {
	ID       int             `json:"id"`
	FeeType  string          `json:"fee_type"`
	Location string          `json:"location"`
	Amount   decimal.Decimal `json:"amount"`
	Active   bool            `json:"active"`
}

type Customer struct {
	ID          int       `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Nationality string    `json:"nationality"`
	UID         string    `json:"uid"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type RentalOrder struct {
	ID                int              `json:"id"`
	OrderNumber       int              `json:"order_number"`
	CustomerID        int              `json:"customer_id"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	StartTime         string           `json:"start_time"`
	EndTime           string           `json:"end_time"`
	ReturnIsland      string           `json:"return_island"`
	Pickup            string           `json:"pickup"`
	HotelName         string           `json:"hotel_name,omitempty"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	TaxAmount         decimal.Decimal  `json:"tax_amount"`
	InitialPayment    decimal.Decimal  `json:"initial_payment"`
	Status            lifecycle.Status `json:"status"`
	PaymentStatus     string           `json:"payment_status"`
	TransactionID     string           `json:"transaction_id,omitempty"`
	AuthorizationCode string           `json:"authorization_code,omitempty"`
	GatewayMessage    string           `json:"gateway_message,omitempty"`
	Language          string           `json:"language"`
	ReviewText        *string          `json:"review_text,omitempty"`
	ReviewStars       *int             `json:"review_stars,omitempty"`
	ReviewSubmittedAt *time.Time       `json:"review_submitted_at,omitempty"`
	ReviewApproved    bool             `json:"review_approved"`
	ReviewEmailSent   bool             `json:"review_email_sent"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// HasReview reports whether any review field is already populated.
func (o RentalOrder) HasReview() bool {
	return o.ReviewText != nil || o.ReviewStars != nil || o.ReviewSubmittedAt != nil
}

type RentalItem struct {
	ID              int             `json:"id"`
	OrderID         int             `json:"order_id"`
	ProductConfigID int             `json:"product_config_id"`
	ProductType     string          `json:"product_type,omitempty"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        int             `json:"quantity"`
	Size            string          `json:"size"`
	Days            int             `json:"days"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type EmailTemplate struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	TemplateType  string    `json:"template_type"`
	Subject       string    `json:"subject"`
	Recipients    []string  `json:"recipients"`
	HTMLPublished string    `json:"html_published"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}

type GalleryImage struct {
	ID        int    `json:"id"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	SortOrder int    `json:"sort_order"`
	Active    bool   `json:"active"`
}
