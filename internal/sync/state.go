package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peteski22/campaignsync/internal/retry"
)

// pageSize is the number of rows read per request.
const pageSize = 100

// loadState reads the campaign sheet to find whether headers exist,
// the last synced date and the next free campaign row.
func (s *Service) loadState(ctx context.Context, logger *slog.Logger) (*SyncState, error) {
	state := newSyncState()
	sheet := DatasetCampaign.Sheet(s.prefix)

	hasHeaders := false
	lastRow, err := s.scan(ctx, sheet, "A", 1, func(row int64, cells []string) {
		if row == 1 {
			hasHeaders = true
		}
		if len(cells) == 0 {
			return
		}
		if date, ok := parseDate(cells[0]); ok {
			state.LastCampaignDate = &date
		}
	})
	if err != nil {
		return nil, err
	}

	state.HasHeaders = &hasHeaders
	if hasHeaders {
		state.NextRows.Campaign = max(firstDataRow, lastRow+1)
	}

	logger.DebugContext(ctx, "loaded campaign sheet state",
		"sheet", sheet,
		"has_headers", hasHeaders,
		"next_row", state.NextRows.Campaign)

	return state, nil
}

// indexExisting records the row of every existing link, user agent and region row
// belonging to one of the campaigns, and the next free row of each of those sheets.
func (s *Service) indexExisting(ctx context.Context, logger *slog.Logger, state *SyncState, campaigns []Campaign) error {
	titles := make(map[string]struct{}, len(campaigns))
	for _, c := range campaigns {
		titles[c.Title] = struct{}{}
	}

	for _, d := range []Dataset{DatasetLink, DatasetUserAgent, DatasetRegion} {
		sheet := d.Sheet(s.prefix)
		indexed := 0

		lastRow, err := s.scan(ctx, sheet, d.keyColumn(), firstDataRow, func(row int64, cells []string) {
			if len(cells) == 0 {
				return
			}
			if _, ok := titles[cells[0]]; !ok {
				return
			}
			if state.index(d, cells, row) {
				indexed++
			}
		})
		if err != nil {
			return err
		}

		next := state.NextRows.of(d)
		*next = max(firstDataRow, lastRow+1)

		logger.DebugContext(ctx, "indexed existing rows",
			"sheet", sheet,
			"indexed", indexed,
			"next_row", *next)
	}

	return nil
}

// scan pages through columns A..lastColumn of a sheet from fromRow, calling visit for every row read,
// until a page comes back empty or the grid ends. It returns the last row read, or fromRow-1.
func (s *Service) scan(
	ctx context.Context,
	sheet string,
	lastColumn string,
	fromRow int64,
	visit func(row int64, cells []string),
) (int64, error) {
	capacity, err := retry.Do(ctx, s.policy("row count "+sheet, true), func(ctx context.Context) (int64, error) {
		return s.store.RowCount(ctx, sheet)
	})
	if err != nil {
		return 0, fmt.Errorf("getting row count of %s: %w", sheet, err)
	}

	lastRow := fromRow - 1
	for start := fromRow; start <= capacity; {
		end := min(start+pageSize-1, capacity)

		rows, err := retry.Do(ctx, s.policy("read "+sheet, true), func(ctx context.Context) ([][]string, error) {
			return s.store.ReadRows(ctx, sheet, lastColumn, start, end)
		})
		if err != nil {
			return 0, fmt.Errorf("reading %s rows %d-%d: %w", sheet, start, end, err)
		}
		if len(rows) == 0 {
			break
		}

		for i, cells := range rows {
			visit(start+int64(i), cells)
		}

		lastRow = start + int64(len(rows)) - 1
		start = lastRow + 1
	}

	return lastRow, nil
}

// index records an existing row under its natural key.
// Empty trailing key cells are not returned by the store and are read as empty strings.
func (s *SyncState) index(d Dataset, cells []string, row int64) bool {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}

	switch d {
	case DatasetLink:
		s.LinkRows[LinkKey{Title: cell(0), URL: cell(1)}] = row
	case DatasetUserAgent:
		s.UserAgentRows[UserAgentKey{Title: cell(0), Platform: cell(1), UserAgent: cell(2)}] = row
	case DatasetRegion:
		s.RegionRows[RegionKey{Title: cell(0), Country: cell(1)}] = row
	default:
		return false
	}
	return true
}
