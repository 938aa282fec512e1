package extraction

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// nullToken is how the extraction prompt marks absent values. Some models
// also emit it as a literal string, which must still read as "absent".
const nullToken = "null"

// responseSchema is the wire contract with the vision model: one flat JSON
// object, every key nullable. Numbers are also accepted as numeric strings
// because smaller vision models quote them inconsistently.
const responseSchema = `{
  "type": "object",
  "properties": {
    "product_name": {"type": ["string", "null"]},
    "expiry_date": {"type": ["string", "null"]},
    "barcode": {"type": ["string", "null"]},
    "quantity": {"type": ["number", "string", "null"]},
    "unit": {"type": ["string", "null"]},
    "calories": {"type": ["number", "string", "null"]},
    "protein": {"type": ["number", "string", "null"]},
    "carbs": {"type": ["number", "string", "null"]},
    "fat": {"type": ["number", "string", "null"]},
    "fiber": {"type": ["number", "string", "null"]},
    "brand": {"type": ["string", "null"]},
    "storage_instructions": {"type": ["string", "null"]},
    "detected_text": {"type": ["string", "null"]}
  }
}`

// Normalizer turns a raw vision-model reply into a partial record. Replies
// come in two shapes: the structured JSON object requested by the
// extraction prompt, or arbitrary free text. Malformed or non-conforming
// JSON degrades to free-text parsing; Normalize never fails.
type Normalizer struct {
	parser *Parser
	schema *jsonschema.Schema
}

// NewNormalizer creates a Normalizer backed by the given text parser
func NewNormalizer(parser *Parser) *Normalizer {
	return &Normalizer{
		parser: parser,
		schema: jsonschema.MustCompileString("response.json", responseSchema),
	}
}

// Normalize parses the raw model reply into a partial record
func (n *Normalizer) Normalize(raw string) Fields {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Fields{}
	}

	object, ok := n.decodeStructured(raw)
	if !ok {
		return n.parser.Parse(raw)
	}
	return n.fieldsFromObject(object)
}

// decodeStructured extracts and validates the JSON object from the reply.
// Models wrap replies in markdown fences or prose despite instructions, so
// the object boundaries are located explicitly.
func (n *Normalizer) decodeStructured(raw string) (map[string]any, bool) {
	text := strings.TrimPrefix(raw, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx <= startIdx {
		return nil, false
	}
	text = text[startIdx : endIdx+1]

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false
	}
	if err := n.schema.Validate(value); err != nil {
		return nil, false
	}

	object, ok := value.(map[string]any)
	return object, ok
}

func (n *Normalizer) fieldsFromObject(object map[string]any) Fields {
	fields := Fields{
		ProductName:         stringField(object, "product_name"),
		Brand:               stringField(object, "brand"),
		Barcode:             stringField(object, "barcode"),
		StorageInstructions: stringField(object, "storage_instructions"),
		DetectedText:        stringField(object, "detected_text"),
	}

	if unit := stringField(object, "unit"); unit != "" {
		fields.Unit = NormalizeUnit(unit)
	}

	if dateText := stringField(object, "expiry_date"); dateText != "" {
		fields.ExpiryDate = n.parser.parseDateCandidate(dateText)
		if fields.ExpiryDate == nil {
			fields.ExpiryDate = n.parser.ParseDate(dateText)
		}
	}

	if quantity := numberField(object, "quantity"); quantity != nil && *quantity > 0 {
		fields.Quantity = quantity
	}
	fields.Calories = nonNegativeField(object, "calories")
	fields.Protein = nonNegativeField(object, "protein")
	fields.Carbs = nonNegativeField(object, "carbs")
	fields.Fat = nonNegativeField(object, "fat")
	fields.Fiber = nonNegativeField(object, "fiber")

	return fields
}

// stringField reads a string value, treating JSON null, the literal null
// token and whitespace as absent
func stringField(object map[string]any, key string) string {
	value, ok := object[key].(string)
	if !ok {
		return ""
	}
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, nullToken) {
		return ""
	}
	return value
}

// numberField reads a numeric value, accepting JSON numbers and numeric
// strings
func numberField(object map[string]any, key string) *float64 {
	switch value := object[key].(type) {
	case float64:
		return &value
	case string:
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, nullToken) {
			return nil
		}
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func nonNegativeField(object map[string]any, key string) *float64 {
	value := numberField(object, key)
	if value != nil && *value < 0 {
		return nil
	}
	return value
}
