package pantry

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalImageStore", func() {
	var (
		basePath string
		store    *LocalImageStore
	)

	BeforeEach(func() {
		basePath = filepath.Join(GinkgoT().TempDir(), "images")
		var err error
		store, err = NewLocalImageStore(basePath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the base directory", func() {
		info, err := os.Stat(basePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	Describe("Save and Get", func() {
		It("round-trips a photo", func() {
			path, err := store.Save("item-1_label.jpg", []byte("photo bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal("item-1_label.jpg"))

			data, err := store.Get(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("photo bytes")))
		})

		It("errors on a missing photo", func() {
			_, err := store.Get("missing.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes the photo", func() {
			path, err := store.Save("item-1_label.jpg", []byte("photo bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Delete(path)).To(Succeed())

			_, err = store.Get(path)
			Expect(err).To(HaveOccurred())
		})

		It("errors on a missing photo", func() {
			Expect(store.Delete("missing.jpg")).NotTo(Succeed())
		})
	})
})
