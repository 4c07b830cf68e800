package contracts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/afowler-mm/support-reports/internal/models"
)

// ErrNotResolved marks any failure to read a client's contract from the
// workbook: missing fiscal-year tab, unknown client row, or unrecognizable
// month columns. It is never fatal; callers fall back to the company
// record's inclusive hours with carryover treated as zero.
var ErrNotResolved = errors.New("contract not resolved from workbook")

const (
	// Fixed layout of the fiscal-year tabs: client rows start after a
	// three-row header block, inclusive hours sit in column 2, and the
	// "Carried Over from" fallback column is column 5.
	headerBlockRows      = 3
	inclusiveHoursColumn = 2
	carriedOverColumn    = 5

	// A month's "carry over to next month" sub-column sits within this many
	// columns to the right of the month's own column.
	carryOverScanWidth = 10

	carryOverHeader = "carry over to next month"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Resolver looks up a client's monthly allowance and rollover balance in the
// contract workbook. The lookup is text matching over a human-maintained
// sheet and is inherently fragile; every failure degrades to ErrNotResolved
// rather than an abort.
type Resolver struct {
	source Source
}

// NewResolver creates a resolver over the given source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the contract state for companyCode in the month containing
// the given date.
func (r *Resolver) Resolve(ctx context.Context, companyCode string, month time.Time) (*models.Contract, error) {
	fiscalYear := FiscalYearLabel(month)

	grid, err := r.grid(ctx, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("%w: no tab for fiscal year %s: %v", ErrNotResolved, fiscalYear, err)
	}

	clientRow := findClientRow(grid, companyCode)
	if clientRow == nil {
		return nil, fmt.Errorf("%w: client with code %q not found in tab %s", ErrNotResolved, companyCode, fiscalYear)
	}

	monthRow := findMonthRow(grid)
	if monthRow == nil {
		return nil, fmt.Errorf("%w: no month columns identified in tab %s", ErrNotResolved, fiscalYear)
	}

	inclusiveHours := parseHours(cellAt(clientRow, inclusiveHoursColumn))

	var carryoverHours float64
	if month.Month() == time.October {
		carryoverHours = r.octoberCarryover(ctx, companyCode, month, clientRow)
	} else {
		carryoverHours = carryoverFromGrid(grid, clientRow, monthRow, PreviousMonth(month).Month())
	}

	return &models.Contract{
		CompanyCode:    companyCode,
		FiscalYear:     fiscalYear,
		Month:          month.Format("January 2006"),
		ClientRowLabel: cellAt(clientRow, 0),
		InclusiveHours: inclusiveHours,
		CarryoverHours: carryoverHours,
		Source:         models.ContractFromSheet,
	}, nil
}

// ResolveWithFallback never fails: when the workbook lookup cannot be
// completed it substitutes the company record's inclusive hours and zero
// carryover, noting why.
func (r *Resolver) ResolveWithFallback(ctx context.Context, companyCode string, month time.Time, company *models.Company) *models.Contract {
	contract, err := r.Resolve(ctx, companyCode, month)
	if err == nil {
		return contract
	}

	fallback := &models.Contract{
		CompanyCode: companyCode,
		FiscalYear:  FiscalYearLabel(month),
		Month:       month.Format("January 2006"),
		Source:      models.ContractFromFallback,
		Note:        err.Error(),
	}
	if company != nil {
		fallback.InclusiveHours = company.CustomFields.InclusiveHours
	}
	return fallback
}

// octoberCarryover handles the fiscal-year boundary: October's carryover is
// September's "carry over to next month" figure, which lives in the previous
// fiscal year's tab. When that tab is absent the current tab's "Carried Over
// from" column stands in; any other miss yields zero.
func (r *Resolver) octoberCarryover(ctx context.Context, companyCode string, month time.Time, currentClientRow []string) float64 {
	prevFiscalYear := FiscalYearLabel(PreviousMonth(month))

	prevGrid, err := r.grid(ctx, prevFiscalYear)
	if err != nil {
		return parseSignedHours(cellAt(currentClientRow, carriedOverColumn))
	}

	prevClientRow := findClientRow(prevGrid, companyCode)
	if prevClientRow == nil {
		return 0
	}
	prevMonthRow := findMonthRow(prevGrid)
	if prevMonthRow == nil {
		return 0
	}
	return carryoverFromGrid(prevGrid, prevClientRow, prevMonthRow, time.September)
}

func (r *Resolver) grid(ctx context.Context, fiscalYear string) (Grid, error) {
	tabs, err := r.source.Tabs(ctx)
	if err != nil {
		return nil, err
	}
	for _, tab := range tabs {
		if tab == fiscalYear {
			return r.source.Grid(ctx, fiscalYear)
		}
	}
	return nil, fmt.Errorf("tab %q not present", fiscalYear)
}

// findClientRow scans data rows (after the header block) for the first row
// whose first cell contains companyCode, case-insensitively. Substring
// containment is deliberate: the sheet's first column mixes full client
// names and short codes. First match wins even when codes overlap.
func findClientRow(grid Grid, companyCode string) []string {
	needle := strings.ToLower(companyCode)
	for i, row := range grid {
		if i <= headerBlockRows-1 || len(row) == 0 || row[0] == "" {
			continue
		}
		if strings.Contains(strings.ToLower(row[0]), needle) {
			return row
		}
	}
	return nil
}

// findMonthRow locates the header row carrying month-name columns, checking
// the first five rows.
func findMonthRow(grid Grid) []string {
	limit := 5
	if len(grid) < limit {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		for _, cell := range grid[i] {
			for _, name := range monthNames {
				if strings.Contains(cell, name) {
					return grid[i]
				}
			}
		}
	}
	return nil
}

// carryoverFromGrid reads the "carry over to next month" figure for the
// given month: find the month's column in the month header row, then scan a
// bounded window to its right in the sub-header row (row 1) for the
// carry-over column, then read the client row's cell there.
func carryoverFromGrid(grid Grid, clientRow, monthRow []string, month time.Month) float64 {
	monthCol := -1
	for i, cell := range monthRow {
		if strings.Contains(cell, month.String()) {
			monthCol = i
			break
		}
	}
	if monthCol < 0 {
		return 0
	}

	var subHeader []string
	if len(grid) > 1 {
		subHeader = grid[1]
	}

	carryCol := -1
	for i := monthCol; i < monthCol+carryOverScanWidth && i < len(subHeader); i++ {
		if strings.Contains(strings.ToLower(subHeader[i]), carryOverHeader) {
			carryCol = i
			break
		}
	}
	if carryCol < 0 {
		return 0
	}
	return parseSignedHours(cellAt(clientRow, carryCol))
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

var (
	hoursPattern       = regexp.MustCompile(`^\d+(\.\d+)?$`)
	signedHoursPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// parseHours reads a non-negative decimal; anything else (blank, text,
// negative) is treated as absent, never an error.
func parseHours(value string) float64 {
	value = strings.TrimSpace(value)
	if !hoursPattern.MatchString(value) {
		return 0
	}
	hours, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return hours
}

// parseSignedHours is parseHours but permits a leading minus, as carry-over
// cells can go negative when a client has overdrawn.
func parseSignedHours(value string) float64 {
	value = strings.TrimSpace(value)
	if !signedHoursPattern.MatchString(value) {
		return 0
	}
	hours, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return hours
}
