package sync

import (
	"context"
	"log/slog"

	"github.com/peteski22/campaignsync/internal/sheets"
)

// dryRunStore wraps a TabularStore and logs writes instead of executing them.
// Reads go to the real spreadsheet so the logged rows match a real run.
type dryRunStore struct {
	logger *slog.Logger
	store  TabularStore
}

// newDryRunStore creates a dryRunStore that wraps the given store.
func newDryRunStore(store TabularStore, logger *slog.Logger) *dryRunStore {
	return &dryRunStore{
		logger: logger,
		store:  store,
	}
}

// AppendRows logs the expansion that would be requested.
func (d *dryRunStore) AppendRows(ctx context.Context, sheetID int64, length int64) error {
	d.logger.InfoContext(ctx, "[DRY-RUN] would expand sheet",
		"sheet_id", sheetID,
		"increment", length)
	return nil
}

// BatchWrite logs every range that would be written.
func (d *dryRunStore) BatchWrite(ctx context.Context, ranges []sheets.Range) error {
	for _, r := range ranges {
		d.logger.InfoContext(ctx, "[DRY-RUN] would write rows",
			"range", r.A1(),
			"rows", len(r.Values))
	}
	return nil
}

// ReadRows delegates to the real store.
func (d *dryRunStore) ReadRows(
	ctx context.Context,
	sheet string,
	lastColumn string,
	fromRow int64,
	toRow int64,
) ([][]string, error) {
	return d.store.ReadRows(ctx, sheet, lastColumn, fromRow, toRow)
}

// RowCount delegates to the real store.
func (d *dryRunStore) RowCount(ctx context.Context, sheet string) (int64, error) {
	return d.store.RowCount(ctx, sheet)
}

// SheetIDs delegates to the real store.
func (d *dryRunStore) SheetIDs(ctx context.Context) (map[string]int64, error) {
	return d.store.SheetIDs(ctx)
}
