package extraction

// extractionPrompt is the shared prompt used by all vision providers for
// reading grocery product and expiry-label photos.
const extractionPrompt = `You are analyzing a photo of a grocery product or its expiry label. Carefully read all visible text in the image and extract the following information:

1. **product_name**: The product's name as printed on the packaging, e.g. "Rolled Oats" or "Whole Milk".
2. **expiry_date**: The expiry, best-before or use-by date, converted to ISO 8601 format (YYYY-MM-DD). Common printed formats: DD/MM/YYYY, MM/DD/YYYY, or written dates like "15 Jan 2026".
3. **barcode**: The digits printed under the barcode, if readable.
4. **quantity** and **unit**: The net quantity on the package, e.g. 500 and "g" for "Net weight: 500g".
5. **calories**, **protein**, **carbs**, **fat**, **fiber**: Nutrition values per 100g from the nutrition table, numeric values only.
6. **brand**: The brand or manufacturer name.
7. **storage_instructions**: Any storage guidance, e.g. "keep refrigerated".
8. **detected_text**: All other text you can read in the image, preserving line breaks.

Return ONLY valid JSON in this exact format:
{
  "product_name": null,
  "expiry_date": null,
  "barcode": null,
  "quantity": null,
  "unit": null,
  "calories": null,
  "protein": null,
  "carbs": null,
  "fat": null,
  "fiber": null,
  "brand": null,
  "storage_instructions": null,
  "detected_text": null
}

Important:
- Use null for every field you cannot find
- quantity and the nutrition values must be numbers (not strings)
- The expiry_date must be in YYYY-MM-DD format
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// Client defines the interface for vision-model text extraction. Every
// image is optional evidence: callers treat a failed call as "no data"
// rather than aborting the pipeline.
type Client interface {
	// ExtractText sends the image with the extraction prompt and returns
	// the raw model reply (structured JSON or free text)
	ExtractText(imageData []byte, contentType string) (string, error)
	// Close closes the client and releases resources
	Close() error
}
