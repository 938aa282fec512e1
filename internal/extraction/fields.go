package extraction

import "time"

// Fields is a partial record extracted from a single product photo.
// A nil pointer or empty string means "unknown", never zero: the pantry
// applier must be able to tell an unreadable label from a real value.
type Fields struct {
	ProductName         string
	Brand               string
	ExpiryDate          *time.Time
	Barcode             string
	Quantity            *float64
	Unit                string
	Calories            *float64
	Protein             *float64
	Carbs               *float64
	Fat                 *float64
	Fiber               *float64
	StorageInstructions string
	DetectedText        string
}

// IsEmpty reports whether nothing at all was extracted.
func (f Fields) IsEmpty() bool {
	return f.ProductName == "" &&
		f.Brand == "" &&
		f.ExpiryDate == nil &&
		f.Barcode == "" &&
		f.Quantity == nil &&
		f.Unit == "" &&
		f.Calories == nil &&
		f.Protein == nil &&
		f.Carbs == nil &&
		f.Fat == nil &&
		f.Fiber == nil &&
		f.StorageInstructions == "" &&
		f.DetectedText == ""
}

// fillFrom copies values from other into any field that is still unset.
// A field set by an earlier, higher-priority source is never overwritten.
func (f *Fields) fillFrom(other Fields) {
	if f.ProductName == "" {
		f.ProductName = other.ProductName
	}
	if f.Brand == "" {
		f.Brand = other.Brand
	}
	if f.ExpiryDate == nil {
		f.ExpiryDate = other.ExpiryDate
	}
	if f.Barcode == "" {
		f.Barcode = other.Barcode
	}
	if f.Quantity == nil {
		f.Quantity = other.Quantity
	}
	if f.Unit == "" {
		f.Unit = other.Unit
	}
	if f.Calories == nil {
		f.Calories = other.Calories
	}
	if f.Protein == nil {
		f.Protein = other.Protein
	}
	if f.Carbs == nil {
		f.Carbs = other.Carbs
	}
	if f.Fat == nil {
		f.Fat = other.Fat
	}
	if f.Fiber == nil {
		f.Fiber = other.Fiber
	}
	if f.StorageInstructions == "" {
		f.StorageInstructions = other.StorageInstructions
	}
	if f.DetectedText == "" {
		f.DetectedText = other.DetectedText
	}
}
