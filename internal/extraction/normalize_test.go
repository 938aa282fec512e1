package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalizer", func() {
	var (
		normalizer *Normalizer
		raw        string
		fields     Fields
	)

	BeforeEach(func() {
		normalizer = NewNormalizer(newTestParser())
	})

	JustBeforeEach(func() {
		fields = normalizer.Normalize(raw)
	})

	When("the reply is a complete structured object", func() {
		BeforeEach(func() {
			raw = `{
				"product_name": "Organic Rolled Oats",
				"expiry_date": "2025-11-30",
				"barcode": "5012345678900",
				"quantity": 500,
				"unit": "grams",
				"calories": 380,
				"protein": 13.5,
				"carbs": 62,
				"fat": 7.2,
				"fiber": 10,
				"brand": "Hillside Farm",
				"storage_instructions": "keep in a cool dry place",
				"detected_text": "ORGANIC ROLLED OATS\nNET WT 500G"
			}`
		})

		It("maps every field", func() {
			Expect(fields.ProductName).To(Equal("Organic Rolled Oats"))
			Expect(fields.Brand).To(Equal("Hillside Farm"))
			Expect(fields.Barcode).To(Equal("5012345678900"))
			Expect(fields.StorageInstructions).To(Equal("keep in a cool dry place"))
			Expect(fields.DetectedText).To(Equal("ORGANIC ROLLED OATS\nNET WT 500G"))
		})

		It("parses the expiry date", func() {
			Expect(fields.ExpiryDate).NotTo(BeNil())
			Expect(fields.ExpiryDate.Format("2006-01-02")).To(Equal("2025-11-30"))
		})

		It("normalizes the unit", func() {
			Expect(fields.Unit).To(Equal("g"))
		})

		It("takes the numbers", func() {
			Expect(fields.Quantity).To(HaveValue(Equal(500.0)))
			Expect(fields.Calories).To(HaveValue(Equal(380.0)))
			Expect(fields.Protein).To(HaveValue(Equal(13.5)))
			Expect(fields.Carbs).To(HaveValue(Equal(62.0)))
			Expect(fields.Fat).To(HaveValue(Equal(7.2)))
			Expect(fields.Fiber).To(HaveValue(Equal(10.0)))
		})
	})

	When("values are JSON null", func() {
		BeforeEach(func() {
			raw = `{"product_name": "Whole Milk", "expiry_date": null, "barcode": null, "quantity": null}`
		})

		It("treats them as absent", func() {
			Expect(fields.ProductName).To(Equal("Whole Milk"))
			Expect(fields.ExpiryDate).To(BeNil())
			Expect(fields.Barcode).To(BeEmpty())
			Expect(fields.Quantity).To(BeNil())
		})
	})

	When("a value is the literal null token", func() {
		BeforeEach(func() {
			raw = `{"product_name": "Whole Milk", "barcode": "null"}`
		})

		It("treats it as absent, not as a value", func() {
			Expect(fields.Barcode).To(BeEmpty())
		})
	})

	When("the object is wrapped in markdown fences", func() {
		BeforeEach(func() {
			raw = "```json\n{\"product_name\": \"Whole Milk\", \"expiry_date\": \"2025-07-01\"}\n```"
		})

		It("still decodes the object", func() {
			Expect(fields.ProductName).To(Equal("Whole Milk"))
			Expect(fields.ExpiryDate).NotTo(BeNil())
		})
	})

	When("numbers arrive as strings", func() {
		BeforeEach(func() {
			raw = `{"quantity": "500", "calories": "380"}`
		})

		It("coerces them", func() {
			Expect(fields.Quantity).To(HaveValue(Equal(500.0)))
			Expect(fields.Calories).To(HaveValue(Equal(380.0)))
		})
	})

	When("numbers are out of range", func() {
		BeforeEach(func() {
			raw = `{"quantity": -2, "calories": -10}`
		})

		It("drops them", func() {
			Expect(fields.Quantity).To(BeNil())
			Expect(fields.Calories).To(BeNil())
		})
	})

	When("the reply is not JSON at all", func() {
		BeforeEach(func() {
			raw = "Wholegrain Crispbread Snacks\nbest before: 03/04/2026\nNet weight: 250 grams"
		})

		It("falls back to free-text parsing", func() {
			Expect(fields.ProductName).To(Equal("Wholegrain Crispbread Snacks"))
			Expect(fields.ExpiryDate).NotTo(BeNil())
			Expect(fields.ExpiryDate.Format("2006-01-02")).To(Equal("2026-04-03"))
			Expect(fields.Quantity).To(HaveValue(Equal(250.0)))
			Expect(fields.Unit).To(Equal("g"))
		})

		It("keeps the raw text", func() {
			Expect(fields.DetectedText).To(Equal(raw))
		})
	})

	When("the JSON is malformed", func() {
		BeforeEach(func() {
			raw = `{"product_name": "Oats", "expiry` // truncated reply
		})

		It("degrades to free text instead of failing", func() {
			Expect(fields.DetectedText).To(Equal(raw))
		})
	})

	When("the object does not match the schema", func() {
		BeforeEach(func() {
			raw = `{"product_name": 12345}`
		})

		It("degrades to free text", func() {
			Expect(fields.ProductName).To(BeEmpty())
			Expect(fields.DetectedText).To(Equal(raw))
		})
	})

	When("the reply is empty", func() {
		BeforeEach(func() {
			raw = "   "
		})

		It("returns an empty record", func() {
			Expect(fields.IsEmpty()).To(BeTrue())
		})
	})
})
