package parser_test

import (
	"strings"
	"time"

	"github.com/Leventi/bl-parser/internal/parser"
	"github.com/Leventi/bl-parser/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractTable", func() {
	It("extracts all valid rows with their fixed-position fields", func() {
		companies := testhelpers.GenerateCompanies(parser.MinTableRows)
		companies[0] = testhelpers.TableCompany{
			INN:         "7707083893",
			CompanyName: "ПАО Сбербанк",
			Registry:    "Реестр субъектов естественных монополий",
			Section:     "II",
			DocNumber:   "456/19",
			Region:      "г. Москва",
			Address:     "г. Москва, ул. Вавилова, д. 19",
			OrderDate:   "21.06.2019",
		}

		rows, err := parser.ExtractTable(testhelpers.BuildRegistryTable(companies))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(parser.MinTableRows))

		first := rows[0]
		Expect(first.INN).To(Equal("7707083893"))
		Expect(first.CompanyName).To(Equal("ПАО Сбербанк"))
		Expect(first.Registry).To(Equal("Реестр субъектов естественных монополий"))
		Expect(first.Section).To(Equal("II"))
		Expect(first.DocNumber).To(Equal("456/19"))
		Expect(first.Region).To(Equal("г. Москва"))
		Expect(first.Address).To(Equal("г. Москва, ул. Вавилова, д. 19"))
		Expect(first.ManualUpload).To(BeFalse())
		Expect(first.DateFirstReg).NotTo(BeNil())
		Expect(*first.DateFirstReg).To(Equal(time.Date(2019, 6, 21, 0, 0, 0, 0, time.UTC)))
	})

	It("rejects a table with fewer rows than the sanity threshold", func() {
		companies := testhelpers.GenerateCompanies(parser.MinTableRows - 1)

		_, err := parser.ExtractTable(testhelpers.BuildRegistryTable(companies))
		Expect(err).To(MatchError(parser.ErrValidation))
	})

	It("rejects markup without a table at all", func() {
		_, err := parser.ExtractTable("<html><body><p>maintenance</p></body></html>")
		Expect(err).To(MatchError(parser.ErrValidation))
	})

	It("skips rows whose composite cell has no INN label", func() {
		companies := testhelpers.GenerateCompanies(parser.MinTableRows + 1)
		companies[5].OmitINN = true

		rows, err := parser.ExtractTable(testhelpers.BuildRegistryTable(companies))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(parser.MinTableRows))
	})

	It("skips rows whose INN is not 10 or 12 characters", func() {
		companies := testhelpers.GenerateCompanies(parser.MinTableRows + 1)
		companies[7].INN = "12345"

		rows, err := parser.ExtractTable(testhelpers.BuildRegistryTable(companies))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(parser.MinTableRows))
		for _, row := range rows {
			Expect(row.INN).NotTo(Equal("12345"))
		}
	})

	It("accepts a 12 character INN", func() {
		companies := testhelpers.GenerateCompanies(parser.MinTableRows)
		companies[3].INN = "500100732259"

		rows, err := parser.ExtractTable(testhelpers.BuildRegistryTable(companies))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[3].INN).To(Equal("500100732259"))
	})

	It("aborts when a row is missing mandatory cells", func() {
		markup := testhelpers.BuildRegistryTable(testhelpers.GenerateCompanies(parser.MinTableRows))
		markup = strings.Replace(markup, "</tbody>", "<tr><td>truncated</td></tr></tbody>", 1)

		_, err := parser.ExtractTable(markup)
		Expect(err).To(MatchError(parser.ErrValidation))
	})

	It("aborts on a malformed order date", func() {
		companies := testhelpers.GenerateCompanies(parser.MinTableRows)
		companies[42].OrderDate = "2019-06-21"

		_, err := parser.ExtractTable(testhelpers.BuildRegistryTable(companies))
		Expect(err).To(MatchError(parser.ErrValidation))
	})
})
