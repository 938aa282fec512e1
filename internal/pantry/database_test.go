package pantry

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newTestItem := func(id string) *Item {
		quantity := 2.0
		expiry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		return &Item{
			ID:         id,
			UserID:     "user-1",
			Name:       "Yogurt",
			Status:     StatusActive,
			ExpiryDate: &expiry,
			Quantity:   &quantity,
			Unit:       "pieces",
			CreatedAt:  time.Now().UTC(),
			UpdatedAt:  time.Now().UTC(),
		}
	}

	Describe("SaveItem and GetItem", func() {
		var (
			item *Item
			err  error
		)

		BeforeEach(func() {
			item = newTestItem("item-1")
		})

		JustBeforeEach(func() {
			err = db.SaveItem(item)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("round-trips the item", func() {
				saved, getErr := db.GetItem("item-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("item-1"))
				Expect(saved.Name).To(Equal("Yogurt"))
				Expect(saved.Quantity).To(HaveValue(Equal(2.0)))
				Expect(saved.ExpiryDate).NotTo(BeNil())
			})
		})

		When("the item does not exist", func() {
			It("returns a not-found error", func() {
				_, getErr := db.GetItem("nonexistent")
				Expect(getErr).To(MatchError("pantry item not found: nonexistent"))
			})
		})
	})

	Describe("ListActiveItems", func() {
		BeforeEach(func() {
			active := newTestItem("active-1")
			Expect(db.SaveItem(active)).To(Succeed())

			expired := newTestItem("expired-1")
			expired.Status = StatusExpired
			Expect(db.SaveItem(expired)).To(Succeed())

			other := newTestItem("other-user")
			other.UserID = "user-2"
			Expect(db.SaveItem(other)).To(Succeed())
		})

		It("returns only the user's active items", func() {
			items, err := db.ListActiveItems("user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).To(Equal("active-1"))
		})

		It("lists all statuses for ListItems", func() {
			items, err := db.ListItems("user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
		})
	})

	Describe("ExpireItem", func() {
		var (
			item    *Item
			record  *WasteRecord
			created bool
			err     error
		)

		BeforeEach(func() {
			item = newTestItem("item-1")
			Expect(db.SaveItem(item)).To(Succeed())

			record = &WasteRecord{
				ID:             "waste-1",
				UserID:         "user-1",
				PantryItemID:   "item-1",
				QuantityWasted: 2.0,
				Reason:         ReasonExpired,
				WasteDate:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			}
		})

		JustBeforeEach(func() {
			created, err = db.ExpireItem(item, record)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("marks the item expired", func() {
			saved, getErr := db.GetItem("item-1")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.Status).To(Equal(StatusExpired))
		})

		It("writes the waste record", func() {
			Expect(created).To(BeTrue())

			exists, checkErr := db.HasWasteRecord("item-1", ReasonExpired, record.WasteDate)
			Expect(checkErr).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		When("a record already exists for the same day", func() {
			It("does not write a duplicate", func() {
				again, againErr := db.ExpireItem(item, record)
				Expect(againErr).NotTo(HaveOccurred())
				Expect(again).To(BeFalse())

				records, listErr := db.ListWasteRecords("user-1")
				Expect(listErr).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
			})
		})

		When("the same item expires again on a later day", func() {
			It("writes a second record", func() {
				later := &WasteRecord{
					ID:             "waste-2",
					UserID:         "user-1",
					PantryItemID:   "item-1",
					QuantityWasted: 2.0,
					Reason:         ReasonExpired,
					WasteDate:      time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
				}
				again, againErr := db.ExpireItem(item, later)
				Expect(againErr).NotTo(HaveOccurred())
				Expect(again).To(BeTrue())

				records, listErr := db.ListWasteRecords("user-1")
				Expect(listErr).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
			})
		})
	})
})
