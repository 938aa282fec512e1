package pantry

import "time"

// Item status values. Expired is terminal for this package; consumed and
// discarded are set by other flows and also leave active.
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusConsumed  = "consumed"
	StatusDiscarded = "discarded"
)

// ReasonExpired is the waste-ledger reason written by the expiry sweep
const ReasonExpired = "expired"

// Item represents a pantry item owned by a user. Optional fields are
// pointers or empty strings so "unknown" stays distinguishable from a real
// zero quantity or 0g of protein.
type Item struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	Name                string     `json:"name"`
	Brand               string     `json:"brand,omitempty"`
	ExpiryDate          *time.Time `json:"expiry_date,omitempty"`
	Barcode             string     `json:"barcode,omitempty"`
	Quantity            *float64   `json:"quantity,omitempty"`
	Unit                string     `json:"unit,omitempty"`
	Calories            *float64   `json:"calories,omitempty"` // per 100g
	Protein             *float64   `json:"protein,omitempty"`
	Carbs               *float64   `json:"carbs,omitempty"`
	Fat                 *float64   `json:"fat,omitempty"`
	Fiber               *float64   `json:"fiber,omitempty"`
	StorageInstructions string     `json:"storage_instructions,omitempty"`
	Price               *float64   `json:"price,omitempty"`
	PurchaseDate        *time.Time `json:"purchase_date,omitempty"`
	Status              string     `json:"status"`
	LabelImagePath      string     `json:"label_image_path,omitempty"`
	ProductImagePath    string     `json:"product_image_path,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// WasteRecord is one row of the append-only food-waste ledger. The sweep
// writes at most one expired-reason record per item per waste date.
type WasteRecord struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	PantryItemID     string     `json:"pantry_item_id"`
	OriginalQuantity float64    `json:"original_quantity"`
	QuantityWasted   float64    `json:"quantity_wasted"`
	Unit             string     `json:"unit,omitempty"`
	Cost             float64    `json:"cost"`
	Reason           string     `json:"reason"`
	ReasonDetails    string     `json:"reason_details,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	WasteDate        time.Time  `json:"waste_date"`
	CreatedAt        time.Time  `json:"created_at"`
}
