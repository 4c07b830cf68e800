package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/afowler-mm/support-reports/internal/cache"
)

// Grid is an untyped 2D view of one worksheet tab, rows of cell text exactly
// as the sheet renders them. All contract parsing happens over this shape so
// the workbook backend can be swapped for a structured store later without
// touching billing rules.
type Grid [][]string

// Source exposes the contract workbook as named tabs of raw grids.
type Source interface {
	Tabs(ctx context.Context) ([]string, error)
	Grid(ctx context.Context, tab string) (Grid, error)
}

// WorkbookSource reads tabs from an xlsx workbook on disk, with a TTL cache
// in front of each read. The workbook is maintained by hand; grids come back
// exactly as typed, merged cells included.
type WorkbookSource struct {
	path  string
	store cache.Store
	ttl   time.Duration
}

// NewWorkbookSource creates a workbook-backed source.
func NewWorkbookSource(path string, store cache.Store, ttl time.Duration) *WorkbookSource {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &WorkbookSource{path: path, store: store, ttl: ttl}
}

// Tabs lists the workbook's sheet names.
func (ws *WorkbookSource) Tabs(ctx context.Context) ([]string, error) {
	data, err := cache.GetOrFetch(ctx, ws.store, "workbook:tabs", ws.ttl, func() ([]byte, error) {
		f, err := excelize.OpenFile(ws.path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", ws.path, err)
		}
		defer f.Close()
		return json.Marshal(f.GetSheetList())
	})
	if err != nil {
		return nil, err
	}
	var tabs []string
	if err := json.Unmarshal(data, &tabs); err != nil {
		return nil, err
	}
	return tabs, nil
}

// Grid reads one tab as a raw cell grid.
func (ws *WorkbookSource) Grid(ctx context.Context, tab string) (Grid, error) {
	key := "workbook:grid:" + tab
	data, err := cache.GetOrFetch(ctx, ws.store, key, ws.ttl, func() ([]byte, error) {
		f, err := excelize.OpenFile(ws.path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", ws.path, err)
		}
		defer f.Close()

		rows, err := f.GetRows(tab)
		if err != nil {
			return nil, fmt.Errorf("read tab %q: %w", tab, err)
		}
		return json.Marshal(rows)
	})
	if err != nil {
		return nil, err
	}
	var grid Grid
	if err := json.Unmarshal(data, &grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// MemorySource is an in-memory Source used by tests and fixtures.
type MemorySource struct {
	Sheets map[string]Grid
	Order  []string
}

// NewMemorySource creates a source from named grids, preserving tab order.
func NewMemorySource() *MemorySource {
	return &MemorySource{Sheets: make(map[string]Grid)}
}

// AddTab registers a grid under a tab name.
func (ms *MemorySource) AddTab(name string, grid Grid) *MemorySource {
	if _, exists := ms.Sheets[name]; !exists {
		ms.Order = append(ms.Order, name)
	}
	ms.Sheets[name] = grid
	return ms
}

func (ms *MemorySource) Tabs(_ context.Context) ([]string, error) {
	return append([]string(nil), ms.Order...), nil
}

func (ms *MemorySource) Grid(_ context.Context, tab string) (Grid, error) {
	grid, ok := ms.Sheets[tab]
	if !ok {
		return nil, fmt.Errorf("tab %q not found", tab)
	}
	return grid, nil
}
