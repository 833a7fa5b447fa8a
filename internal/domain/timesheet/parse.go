package timesheet

import (
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// canonical column keys
const (
	colIqama         = "iqama"
	colWorkingDays   = "working_days"
	colAbsentHours   = "absent_hours"
	colOvertimeHours = "overtime_hours"
	colIncentive     = "incentive"
	colPenalty       = "penalty"
	colEtmamCost     = "etmam_cost"
)

// headerAliases maps normalized header spellings to canonical keys. Headers are
// lowercased, diacritics stripped and non-alphanumerics removed before lookup,
// so "Iqama No." and "iqama-number" both land on iqama.
var headerAliases = map[string]string{
	"iqama":          colIqama,
	"iqamano":        colIqama,
	"iqamanumber":    colIqama,
	"iqamaid":        colIqama,
	"idnumber":       colIqama,
	"idno":           colIqama,
	"employeeiqama":  colIqama,
	"workingdays":    colWorkingDays,
	"workdays":       colWorkingDays,
	"noofdays":       colWorkingDays,
	"days":           colWorkingDays,
	"absenthours":    colAbsentHours,
	"absenthrs":      colAbsentHours,
	"absencehours":   colAbsentHours,
	"absence":        colAbsentHours,
	"overtimehours":  colOvertimeHours,
	"overtimehrs":    colOvertimeHours,
	"overtime":       colOvertimeHours,
	"othours":        colOvertimeHours,
	"othrs":          colOvertimeHours,
	"incentive":      colIncentive,
	"incentives":     colIncentive,
	"bonus":          colIncentive,
	"penalty":        colPenalty,
	"penalties":      colPenalty,
	"etmamcost":      colEtmamCost,
	"etmamfee":       colEtmamCost,
	"servicefee":     colEtmamCost,
	"servicecharge":  colEtmamCost,
	"monthlyservice": colEtmamCost,
}

func normalizeHeader(raw string) string {
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

// ParseAdjustmentSheet reads the first sheet of an uploaded workbook into
// adjustment rows. The iqama column is required; rows where every cell is blank
// are skipped silently. Missing or unparseable numeric cells fall back to the
// documented defaults (30 working days, 1000 etmam cost, zero otherwise).
func ParseAdjustmentSheet(r io.Reader) ([]UploadRow, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrEmptySheet
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	columns := map[int]string{}
	for idx, header := range rows[0] {
		if key, ok := headerAliases[normalizeHeader(header)]; ok {
			columns[idx] = key
		}
	}
	if !hasIqamaColumn(columns) {
		return nil, ErrMissingIqamaColumn
	}

	var parsed []UploadRow
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		cells := map[string]string{}
		for idx, key := range columns {
			if idx < len(row) {
				cells[key] = strings.TrimSpace(row[idx])
			}
		}

		parsed = append(parsed, UploadRow{
			RowNumber: i + 2, // 1-based, accounting for the header row
			Iqama:     cells[colIqama],
			Adjustments: Adjustments{
				WorkingDays:   cellFloat(cells, colWorkingDays, DefaultWorkingDays),
				AbsentHours:   cellFloat(cells, colAbsentHours, 0),
				OvertimeHours: cellFloat(cells, colOvertimeHours, 0),
				Incentive:     cellFloat(cells, colIncentive, 0),
				Penalty:       cellFloat(cells, colPenalty, 0),
				EtmamCost:     cellFloat(cells, colEtmamCost, DefaultEtmamCost),
			},
		})
	}

	if len(parsed) == 0 {
		return nil, ErrEmptySheet
	}
	return parsed, nil
}

func hasIqamaColumn(columns map[int]string) bool {
	for _, key := range columns {
		if key == colIqama {
			return true
		}
	}
	return false
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellFloat(cells map[string]string, key string, fallback float64) float64 {
	raw, ok := cells[key]
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return fallback
	}
	return value
}
