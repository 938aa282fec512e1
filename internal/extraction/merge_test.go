package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func dateOf(value string) *time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &parsed
}

var _ = Describe("Merge", func() {
	var (
		parser  *Parser
		label   *Fields
		product *Fields
		merged  Fields
	)

	BeforeEach(func() {
		parser = newTestParser()
		label = nil
		product = nil
	})

	JustBeforeEach(func() {
		merged = Merge(parser, label, product)
	})

	When("both images carry an expiry date", func() {
		BeforeEach(func() {
			label = &Fields{ExpiryDate: dateOf("2025-01-01")}
			product = &Fields{ExpiryDate: dateOf("2025-02-01"), ProductName: "Oats"}
		})

		It("keeps the label image's date", func() {
			Expect(merged.ExpiryDate).NotTo(BeNil())
			Expect(merged.ExpiryDate.Format("2006-01-02")).To(Equal("2025-01-01"))
		})

		It("takes the name only the product image supplied", func() {
			Expect(merged.ProductName).To(Equal("Oats"))
		})
	})

	When("the label date only exists in its detected text", func() {
		BeforeEach(func() {
			label = &Fields{DetectedText: "best before 05/06/2025"}
			product = &Fields{ExpiryDate: dateOf("2025-09-09")}
		})

		It("prefers the label text date over the product date", func() {
			Expect(merged.ExpiryDate).NotTo(BeNil())
			Expect(merged.ExpiryDate.Format("2006-01-02")).To(Equal("2025-06-05"))
		})
	})

	When("only the product image yields a date", func() {
		BeforeEach(func() {
			label = &Fields{DetectedText: "no date printed here at all"}
			product = &Fields{DetectedText: "use by 10/11/2025"}
		})

		It("falls back to the product image", func() {
			Expect(merged.ExpiryDate).NotTo(BeNil())
			Expect(merged.ExpiryDate.Format("2006-01-02")).To(Equal("2025-11-10"))
		})
	})

	When("both images name the product", func() {
		BeforeEach(func() {
			label = &Fields{ProductName: "Smudged Label Name"}
			product = &Fields{ProductName: "Hillside Farm Oats"}
		})

		It("lets the product image's structured fields lead", func() {
			Expect(merged.ProductName).To(Equal("Hillside Farm Oats"))
		})
	})

	When("the product JSON left a field for its free text", func() {
		BeforeEach(func() {
			product = &Fields{
				ProductName:  "Hillside Farm Oats",
				DetectedText: "Net weight: 500 grams",
			}
		})

		It("backfills from the same image's text", func() {
			Expect(merged.ProductName).To(Equal("Hillside Farm Oats"))
			Expect(merged.Quantity).To(HaveValue(Equal(500.0)))
			Expect(merged.Unit).To(Equal("g"))
		})
	})

	When("only the label image exists", func() {
		BeforeEach(func() {
			label = &Fields{ProductName: "Wholegrain Crispbread", Barcode: "5012345678900"}
		})

		It("uses it for everything", func() {
			Expect(merged.ProductName).To(Equal("Wholegrain Crispbread"))
			Expect(merged.Barcode).To(Equal("5012345678900"))
		})
	})

	When("no image yielded anything", func() {
		It("returns an empty record", func() {
			Expect(merged.IsEmpty()).To(BeTrue())
		})
	})
})
