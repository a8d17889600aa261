package testhelpers

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TableCompany describes one row of a synthetic registry table
type TableCompany struct {
	INN         string
	CompanyName string
	Registry    string
	Section     string
	DocNumber   string
	Region      string
	Address     string
	OrderDate   string
	// OmitINN leaves the labeled INN element out of the composite cell
	OmitINN bool
}

// NewTableCompany returns a company row with plausible defaults
func NewTableCompany(inn, companyName string) TableCompany {
	return TableCompany{
		INN:         inn,
		CompanyName: companyName,
		Registry:    "Реестр субъектов естественных монополий",
		Section:     "I",
		DocNumber:   "123/24",
		Region:      "Московская область",
		Address:     "г. Москва, ул. Ленина, д. 1",
		OrderDate:   "15.03.2019",
	}
}

// GenerateCompanies produces n distinct valid company rows
func GenerateCompanies(n int) []TableCompany {
	companies := make([]TableCompany, 0, n)
	for i := 0; i < n; i++ {
		inn := fmt.Sprintf("77%08d", i)
		companies = append(companies, NewTableCompany(inn, fmt.Sprintf("ООО Компания %d", i)))
	}
	return companies
}

// BuildRegistryTable renders companies as markup shaped like the source
// site's search result table.
func BuildRegistryTable(companies []TableCompany) string {
	var b strings.Builder
	b.WriteString("<html><body><table><tbody>")

	for _, c := range companies {
		b.WriteString("<tr>")
		b.WriteString("<td>" + c.Registry + "</td>")
		b.WriteString("<td>" + c.Section + "</td>")
		b.WriteString("<td>" + c.DocNumber + "</td>")
		b.WriteString("<td>" + c.Region + "</td>")
		b.WriteString("<td>" + c.CompanyName + "</td>")
		if c.OmitINN {
			b.WriteString("<td><nobr><div>ОГРН: 1027700000000</div></nobr></td>")
		} else {
			b.WriteString("<td><nobr><div>ОГРН: 1027700000000</div><div>ИНН: " + c.INN + "</div></nobr></td>")
		}
		b.WriteString("<td>" + c.Address + "</td>")
		b.WriteString("<td>77/2019</td>")
		b.WriteString("<td>" + c.OrderDate + "</td>")
		b.WriteString("</tr>")
	}

	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// BuildWorkbook renders rows (first row = headers) as an xlsx file
func BuildWorkbook(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
