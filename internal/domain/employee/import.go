package employee

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrImportEmptySheet    = errors.New("workbook has no data rows")
	ErrImportMissingColumn = errors.New("required columns missing: iqama, name, client number, basic salary")
)

// ImportIssue is one rejected row of a bulk import.
type ImportIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportError struct {
	Issues []ImportIssue
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected: %d row(s) failed", len(e.Issues))
}

const (
	impIqama       = "iqama"
	impName        = "name"
	impNationality = "nationality"
	impPassportNo  = "passport_no"
	impPassportExp = "passport_expiry"
	impClientNo    = "client_number"
	impClientName  = "client_name"
	impBasic       = "basic_salary"
	impHousing     = "housing"
	impTransport   = "transport"
	impFood        = "food"
	impOther       = "other"
)

var importAliases = map[string]string{
	"iqama":            impIqama,
	"iqamano":          impIqama,
	"iqamanumber":      impIqama,
	"idnumber":         impIqama,
	"idno":             impIqama,
	"name":             impName,
	"employeename":     impName,
	"fullname":         impName,
	"nationality":      impNationality,
	"passportno":       impPassportNo,
	"passportnumber":   impPassportNo,
	"passport":         impPassportNo,
	"passportexpiry":   impPassportExp,
	"passportexpdate":  impPassportExp,
	"clientno":         impClientNo,
	"clientnumber":     impClientNo,
	"client":           impClientNo,
	"clientname":       impClientName,
	"basicsalary":      impBasic,
	"basic":            impBasic,
	"salary":           impBasic,
	"housing":          impHousing,
	"housingallowance": impHousing,
	"transport":        impTransport,
	"transportation":   impTransport,
	"food":             impFood,
	"foodallowance":    impFood,
	"other":            impOther,
	"otherallowance":   impOther,
}

func normalizeImportHeader(raw string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(raw)))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseImportSheet reads a bulk employee workbook. The header row goes through
// the same normalization as timesheet uploads; iqama, name, client number and
// basic salary columns are required. Allowance columns are read as fixed
// monthly amounts. All-or-nothing: any bad row rejects the whole file.
func ParseImportSheet(r io.Reader, createdBy string) ([]Employee, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrImportEmptySheet
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrImportEmptySheet
	}

	columns := map[int]string{}
	seen := map[string]bool{}
	for idx, header := range rows[0] {
		if key, ok := importAliases[normalizeImportHeader(header)]; ok {
			columns[idx] = key
			seen[key] = true
		}
	}
	if !seen[impIqama] || !seen[impName] || !seen[impClientNo] || !seen[impBasic] {
		return nil, ErrImportMissingColumn
	}

	var out []Employee
	var issues []ImportIssue
	for i, row := range rows[1:] {
		rowNumber := i + 2
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}

		cells := map[string]string{}
		for idx, key := range columns {
			if idx < len(row) {
				cells[key] = strings.TrimSpace(row[idx])
			}
		}

		if cells[impIqama] == "" {
			issues = append(issues, ImportIssue{Row: rowNumber, Reason: "iqama number is missing"})
			continue
		}
		if cells[impName] == "" {
			issues = append(issues, ImportIssue{Row: rowNumber, Reason: "name is missing"})
			continue
		}
		if cells[impClientNo] == "" {
			issues = append(issues, ImportIssue{Row: rowNumber, Reason: "client number is missing"})
			continue
		}
		basic, err := strconv.ParseFloat(strings.ReplaceAll(cells[impBasic], ",", ""), 64)
		if err != nil || basic <= 0 {
			issues = append(issues, ImportIssue{Row: rowNumber, Reason: "basic salary must be a positive number"})
			continue
		}

		emp := Employee{
			IqamaNumber:    cells[impIqama],
			Name:           cells[impName],
			Nationality:    cells[impNationality],
			PassportNumber: cells[impPassportNo],
			ClientNumber:   cells[impClientNo],
			ClientName:     cells[impClientName],
			BasicSalary:    basic,
			Housing:        Allowance{Type: AllowanceFixed, Value: importFloat(cells[impHousing])},
			Transport:      Allowance{Type: AllowanceFixed, Value: importFloat(cells[impTransport])},
			Food:           Allowance{Type: AllowanceFixed, Value: importFloat(cells[impFood])},
			OtherAllowance: importFloat(cells[impOther]),
			Status:         StatusActive,
			CreatedBy:      createdBy,
			EditedBy:       createdBy,
		}
		if raw := cells[impPassportExp]; raw != "" {
			if expiry, err := parseImportDate(raw); err == nil {
				emp.PassportExpiry = &expiry
			}
		}
		emp.TotalSalary = TotalSalary(emp)
		out = append(out, emp)
	}

	if len(issues) > 0 {
		return nil, &ImportError{Issues: issues}
	}
	if len(out) == 0 {
		return nil, ErrImportEmptySheet
	}
	return out, nil
}

func importFloat(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseImportDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "01-02-06", "1/2/2006", "02/01/2006"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %s", raw)
}
