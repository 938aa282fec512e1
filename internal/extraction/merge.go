package extraction

import "time"

// Merge combines the records extracted from a label photo and a product
// photo into one. The label photo is authoritative for the expiry date:
// its structured value wins, then a date parsed from its detected text,
// and only then is the product photo consulted. For every other field the
// product photo's structured values lead, with free-text heuristics
// backfilling whatever the structured pass left empty, then the label
// photo's values. Once a field is set it is never overwritten by a later,
// lower-priority source.
func Merge(parser *Parser, label, product *Fields) Fields {
	merged := Fields{}
	merged.ExpiryDate = expiryDateFrom(parser, label)
	if merged.ExpiryDate == nil {
		merged.ExpiryDate = expiryDateFrom(parser, product)
	}

	if product != nil {
		merged.fillFrom(*product)
		merged.fillFrom(parser.Parse(product.DetectedText))
	}
	if label != nil {
		merged.fillFrom(*label)
		merged.fillFrom(parser.Parse(label.DetectedText))
	}

	return merged
}

func expiryDateFrom(parser *Parser, fields *Fields) *time.Time {
	if fields == nil {
		return nil
	}
	if fields.ExpiryDate != nil {
		return fields.ExpiryDate
	}
	return parser.ParseDate(fields.DetectedText)
}
