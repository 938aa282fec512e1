package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// systemTimeSource provides the real clock in UTC
type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// SystemTimeSource returns a TimeSource backed by the real clock in UTC
func SystemTimeSource() TimeSource {
	return systemTimeSource{}
}

// minPlausibleYear rejects OCR misreads like "12" decoded as a year fragment
const minPlausibleYear = 2020

// datePatterns are tried in order, most specific first: expiry-keyword
// anchored shapes, then bare date shapes, then month-year fallbacks. For
// each pattern every match is tried in order; the first match that parses
// to a date inside the year sanity window wins and the scan stops.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:expiry|exp|best before|use by|use before|best by)[:.\s]*([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{2,4})`),
	regexp.MustCompile(`(?:expiry|exp|best before|use by|use before|best by)[:.\s]*([0-9]{4}[/\-.][0-9]{1,2}[/\-.][0-9]{1,2})`),
	regexp.MustCompile(`(?:expiry|exp|best before|use by|use before|best by)[:.\s]*([a-z]{3,9}\s+[0-9]{1,2},?\s+[0-9]{4})`),
	regexp.MustCompile(`(?:expiry|exp|best before|use by|use before|best by)[:.\s]*([0-9]{1,2}\s+[a-z]{3,9}\s+[0-9]{4})`),
	regexp.MustCompile(`\b([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{2,4})\b`),
	regexp.MustCompile(`\b([0-9]{4}[/\-.][0-9]{1,2}[/\-.][0-9]{1,2})\b`),
	regexp.MustCompile(`\b([a-z]{3,9}\s+[0-9]{1,2},?\s+[0-9]{4})\b`),
	regexp.MustCompile(`\b([0-9]{1,2}\s+[a-z]{3,9}\s+[0-9]{4})\b`),
	regexp.MustCompile(`\b([a-z]{3,9}\s+[0-9]{4})\b`),
	regexp.MustCompile(`\b([0-9]{1,2}/[0-9]{4})\b`),
}

// dateLayouts are tried in order against each matched substring. Numeric
// dates are ambiguous (03/04 could be March 4th or April 3rd), so the
// order encodes the locale tie-break: day-first beats month-first beats
// ISO. Textual-month and month-year layouts follow.
var dateLayouts = []string{
	"2/1/2006", "2-1-2006", "2.1.2006",
	"2/1/06", "2-1-06", "2.1.06",
	"1/2/2006", "1-2-2006", "1.2.2006",
	"1/2/06", "1-2-06", "1.2.06",
	"2006/1/2", "2006-1-2", "2006.1.2",
	"January 2, 2006", "Jan 2, 2006",
	"2 January 2006", "2 Jan 2006",
	"January 2006", "Jan 2006", "1/2006",
}

// quantityPatterns match a number plus a unit token, most specific first:
// a labeled net-weight line, then bare number-with-unit, then a labeled
// quantity with optional punctuation-separated unit.
var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`net\s+(?:weight|wt)[:.\s]*([0-9]+(?:\.[0-9]+)?)\s*([a-z]+)`),
	regexp.MustCompile(`\b([0-9]+(?:\.[0-9]+)?)\s*(kilograms?|kgs?|grams?|gms?|milligrams?|mg|litres?|liters?|millilitres?|milliliters?|ml|ounces?|oz|pounds?|lbs?|pieces?|pcs|items?|units?|packets?|packs?|g|l)\b`),
	regexp.MustCompile(`quantity[:.\s]*([0-9]+(?:\.[0-9]+)?)\s*[/,\-\s]*([a-z]+)?`),
}

// unitSynonyms maps spelled-out and plural unit tokens to canonical short ones
var unitSynonyms = map[string]string{
	"kilogram": "kg", "kilograms": "kg", "kg": "kg", "kgs": "kg",
	"gram": "g", "grams": "g", "gm": "g", "gms": "g", "g": "g",
	"milligram": "mg", "milligrams": "mg", "mg": "mg",
	"litre": "l", "litres": "l", "liter": "l", "liters": "l", "l": "l",
	"millilitre": "ml", "millilitres": "ml", "milliliter": "ml", "milliliters": "ml", "ml": "ml",
	"ounce": "oz", "ounces": "oz", "oz": "oz",
	"pound": "lb", "pounds": "lb", "lb": "lb", "lbs": "lb",
	"piece": "pieces", "pieces": "pieces", "pc": "pieces", "pcs": "pieces",
	"item": "pieces", "items": "pieces", "unit": "pieces", "units": "pieces",
	"pack": "packs", "packs": "packs", "packet": "packs", "packets": "packs",
}

// nutrientMatcher pairs a nutrient with its ordered keyword patterns.
// Nutrients are extracted independently; the first matching pattern wins
// per nutrient.
type nutrientMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

var nutrientMatchers = []nutrientMatcher{
	{"calories", []*regexp.Regexp{
		regexp.MustCompile(`(?:calories|energy)[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*kcal`),
	}},
	{"protein", []*regexp.Regexp{
		regexp.MustCompile(`proteins?[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
	}},
	{"carbs", []*regexp.Regexp{
		regexp.MustCompile(`carbohydrates?[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`carbs?[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
	}},
	{"fat", []*regexp.Regexp{
		regexp.MustCompile(`total\s+fat[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`fats?[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
	}},
	{"fiber", []*regexp.Regexp{
		regexp.MustCompile(`dietary\s+fib(?:er|re)[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`fib(?:er|re)[:.\s]*([0-9]+(?:\.[0-9]+)?)`),
	}},
}

// namePrefixBlacklist filters lines that announce dates, codes or nutrition
// tables rather than naming the product.
var namePrefixBlacklist = []string{"exp", "best", "use", "bb", "mf", "ingredients", "nutrition"}

var multiDigitRun = regexp.MustCompile(`[0-9]{2,}`)

// barcodePatterns: digit runs of barcode length first, then alphanumeric codes
var barcodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[0-9]{8,13}\b`),
	regexp.MustCompile(`\b[A-Z0-9]{10,15}\b`),
}

var storagePattern = regexp.MustCompile(`(?i)(?:storage|store|keep):\s*([^.!\n\r]+)`)

// Parser extracts pantry-item fields from unstructured label text.
type Parser struct {
	timeSource TimeSource
}

// NewParser creates a Parser using the system clock
func NewParser() *Parser {
	return &Parser{timeSource: systemTimeSource{}}
}

// NewParserWithTimeSource creates a Parser with a custom clock for testing
func NewParserWithTimeSource(timeSource TimeSource) *Parser {
	return &Parser{timeSource: timeSource}
}

// Parse runs every heuristic over the text and returns the partial record
func (p *Parser) Parse(text string) Fields {
	if strings.TrimSpace(text) == "" {
		return Fields{}
	}

	fields := Fields{DetectedText: text}
	fields.ExpiryDate = p.ParseDate(text)
	if quantity, unit := p.ParseQuantity(text); quantity != nil {
		fields.Quantity = quantity
		fields.Unit = unit
	}
	for name, value := range p.ParseNutrition(text) {
		switch name {
		case "calories":
			fields.Calories = &value
		case "protein":
			fields.Protein = &value
		case "carbs":
			fields.Carbs = &value
		case "fat":
			fields.Fat = &value
		case "fiber":
			fields.Fiber = &value
		}
	}
	fields.ProductName = p.ParseProductName(text)
	fields.Barcode = p.ParseBarcode(text)
	fields.StorageInstructions = p.ParseStorageInstructions(text)
	return fields
}

// ParseDate returns the first date in the text that parses under a known
// layout and lands inside the year sanity window, or nil if none does.
func (p *Parser) ParseDate(text string) *time.Time {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	for _, pattern := range datePatterns {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			if date := p.parseDateCandidate(strings.TrimSpace(match[1])); date != nil {
				return date
			}
		}
	}
	return nil
}

// parseDateCandidate tries a single matched substring against each layout
// in order. A successful parse outside the sanity window is discarded and
// the remaining layouts are still tried.
func (p *Parser) parseDateCandidate(candidate string) *time.Time {
	maxYear := p.timeSource.Now().Year() + 5
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, candidate)
		if err != nil {
			continue
		}
		if parsed.Year() < minPlausibleYear || parsed.Year() > maxYear {
			continue
		}
		date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		return &date
	}
	return nil
}

// ParseQuantity returns the first number-plus-unit found, with the unit
// normalized to its canonical short token. No disambiguation is attempted
// across multiple candidates.
func (p *Parser) ParseQuantity(text string) (*float64, string) {
	lower := strings.ToLower(text)
	for _, pattern := range quantityPatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		unit := ""
		if len(match) > 2 {
			unit = NormalizeUnit(match[2])
		}
		return &value, unit
	}
	return nil, ""
}

// NormalizeUnit maps a unit token to its canonical short form. Unknown
// tokens pass through lower-cased so callers keep whatever the label said.
func NormalizeUnit(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitSynonyms[unit]; ok {
		return canonical
	}
	return unit
}

// ParseNutrition extracts per-100g nutrition values. Each nutrient is
// matched independently, so a label missing "protein" can still yield
// calories.
func (p *Parser) ParseNutrition(text string) map[string]float64 {
	lower := strings.ToLower(text)
	nutrients := make(map[string]float64)
	for _, matcher := range nutrientMatchers {
		for _, pattern := range matcher.patterns {
			match := pattern.FindStringSubmatch(lower)
			if match == nil {
				continue
			}
			value, err := strconv.ParseFloat(match[1], 64)
			if err != nil || value < 0 {
				continue
			}
			nutrients[matcher.name] = value
			break
		}
	}
	return nutrients
}

// ParseProductName returns the first line that looks like a product name:
// non-trivial length, no multi-digit runs, and not starting with a known
// non-name prefix.
func (p *Parser) ParseProductName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 || multiDigitRun.MatchString(line) {
			continue
		}
		if hasBlacklistedPrefix(line) {
			continue
		}
		return line
	}
	return ""
}

func hasBlacklistedPrefix(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range namePrefixBlacklist {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ParseBarcode returns the first digit or alphanumeric run of barcode
// length. Alphanumeric candidates need at least one digit, otherwise any
// long uppercase word on the label would qualify.
func (p *Parser) ParseBarcode(text string) string {
	for _, pattern := range barcodePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			if len(match) >= 8 && strings.ContainsAny(match, "0123456789") {
				return match
			}
		}
	}
	return ""
}

// ParseStorageInstructions returns the text following a storage keyword up
// to the next sentence terminator.
func (p *Parser) ParseStorageInstructions(text string) string {
	match := storagePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
