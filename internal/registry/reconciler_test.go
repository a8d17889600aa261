package registry_test

import (
	"time"

	"github.com/Leventi/bl-parser/internal/database"
	"github.com/Leventi/bl-parser/internal/models"
	"github.com/Leventi/bl-parser/internal/registry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Leventi/bl-parser/internal/testhelpers"
)

func tableRow(inn, companyName string) models.MonopolyRow {
	date := time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC)
	return models.MonopolyRow{
		INN:          inn,
		CompanyName:  companyName,
		Registry:     "Реестр субъектов естественных монополий",
		Section:      "I",
		DocNumber:    "123/24",
		Region:       "Московская область",
		Address:      "г. Москва, ул. Ленина, д. 1",
		DateFirstReg: &date,
	}
}

func manualRow(inn, companyName string) models.MonopolyRow {
	row := tableRow(inn, companyName)
	row.ManualUpload = true
	return row
}

var _ = Describe("Reconciler", func() {
	var (
		store      *database.Store
		reconciler *registry.Reconciler
		lookup     *registry.Lookup
	)

	BeforeEach(func() {
		db, err := testhelpers.OpenTestDB()
		Expect(err).NotTo(HaveOccurred())

		store = database.NewStoreFromDB(db)
		reconciler = registry.NewReconciler(store)
		lookup = registry.NewLookup(store)
	})

	Describe("a full table pass", func() {
		It("inserts first-seen INNs as listed records", func() {
			summary, err := reconciler.Reconcile([]models.MonopolyRow{
				tableRow("7707083893", "АО Водоканал"),
				tableRow("500100732259", "ООО Теплосеть"),
			}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Inserted).To(Equal(2))
			Expect(summary.Removed).To(BeZero())

			record, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.CompanyName).To(Equal("АО Водоканал"))
			Expect(record.IsListed()).To(BeTrue())
			Expect(record.IsManual()).To(BeFalse())
		})

		It("is idempotent apart from the confirmation timestamp", func() {
			rows := []models.MonopolyRow{tableRow("7707083893", "АО Водоканал")}

			_, err := reconciler.Reconcile(rows, true)
			Expect(err).NotTo(HaveOccurred())

			before, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			summary, err := reconciler.Reconcile(rows, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Inserted).To(BeZero())
			Expect(summary.Refreshed).To(Equal(1))
			Expect(summary.Removed).To(BeZero())

			after, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.CompanyName).To(Equal(before.CompanyName))
			Expect(after.Address).To(Equal(before.Address))
			Expect(after.LastCheck.After(before.LastCheck)).To(BeTrue())
		})

		It("keeps first-captured details when a scraped row changes text", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{tableRow("7707083893", "АО Водоканал")}, true)
			Expect(err).NotTo(HaveOccurred())

			renamed := tableRow("7707083893", "АО Водоканал-Сервис")
			_, err = reconciler.Reconcile([]models.MonopolyRow{renamed}, true)
			Expect(err).NotTo(HaveOccurred())

			record, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.CompanyName).To(Equal("АО Водоканал"))
		})

		It("marks records absent from the pass as removed", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{
				tableRow("7707083893", "АО Водоканал"),
				tableRow("500100732259", "ООО Теплосеть"),
			}, true)
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			summary, err := reconciler.Reconcile([]models.MonopolyRow{
				tableRow("7707083893", "АО Водоканал"),
			}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Removed).To(Equal(1))

			_, err = lookup.Find("500100732259", false)
			Expect(err).To(MatchError(registry.ErrNotFound))

			record, err := lookup.Find("500100732259", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.RemoveDate).NotTo(BeNil())
			Expect(record.CompanyName).To(Equal("ООО Теплосеть"))

			// The surviving record stays listed.
			record, err = lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsListed()).To(BeTrue())
		})

		It("never auto-removes a manually uploaded record", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{manualRow("7707083893", "АО Водоканал")}, false)
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			// A full pass that does not mention the manual record at all.
			summary, err := reconciler.Reconcile([]models.MonopolyRow{
				tableRow("500100732259", "ООО Теплосеть"),
			}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Removed).To(BeZero())

			record, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsListed()).To(BeTrue())
			Expect(record.IsManual()).To(BeTrue())
		})
	})

	Describe("an upload pass", func() {
		It("replaces every detail field of an existing record", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{tableRow("7707083893", "АО Водоканал")}, true)
			Expect(err).NotTo(HaveOccurred())

			corrected := manualRow("7707083893", "АО Водоканал (исправлено)")
			corrected.Address = "г. Москва, ул. Мира, д. 7"

			summary, err := reconciler.Reconcile([]models.MonopolyRow{corrected}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Replaced).To(Equal(1))

			record, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.CompanyName).To(Equal("АО Водоканал (исправлено)"))
			Expect(record.Address).To(Equal("г. Москва, ул. Мира, д. 7"))
			Expect(record.IsManual()).To(BeTrue())
		})

		It("does not mark absent records as removed", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{
				tableRow("7707083893", "АО Водоканал"),
				tableRow("500100732259", "ООО Теплосеть"),
			}, true)
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			_, err = reconciler.Reconcile([]models.MonopolyRow{manualRow("7707083893", "АО Водоканал")}, false)
			Expect(err).NotTo(HaveOccurred())

			record, err := lookup.Find("500100732259", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsListed()).To(BeTrue())
		})

		It("leaves the removal state of a corrected record alone", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{tableRow("7707083893", "АО Водоканал")}, true)
			Expect(err).NotTo(HaveOccurred())

			time.Sleep(10 * time.Millisecond)

			// The record drops off the list...
			_, err = reconciler.Reconcile([]models.MonopolyRow{tableRow("500100732259", "ООО Теплосеть")}, true)
			Expect(err).NotTo(HaveOccurred())

			// ...then an operator corrects its details.
			_, err = reconciler.Reconcile([]models.MonopolyRow{manualRow("7707083893", "АО Водоканал (арх.)")}, false)
			Expect(err).NotTo(HaveOccurred())

			record, err := lookup.Find("7707083893", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.RemoveDate).NotTo(BeNil())
			Expect(record.CompanyName).To(Equal("АО Водоканал (арх.)"))
		})
	})

	Describe("Lookup", func() {
		It("distinguishes a never-seen INN in both modes", func() {
			_, err := lookup.Find("0000000000", false)
			Expect(err).To(MatchError(registry.ErrNotFound))

			_, err = lookup.Find("0000000000", true)
			Expect(err).To(MatchError(registry.ErrNotFound))
		})

		It("finds a listed record in both modes", func() {
			_, err := reconciler.Reconcile([]models.MonopolyRow{tableRow("7707083893", "АО Водоканал")}, true)
			Expect(err).NotTo(HaveOccurred())

			record, err := lookup.Find("7707083893", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.INN).To(Equal("7707083893"))

			record, err = lookup.Find("7707083893", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.INN).To(Equal("7707083893"))
		})
	})
})
