// Package sheets provides the spreadsheet store backed by the Google Sheets v4 API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	// valueInputRaw stores values as given, without formula or date parsing.
	valueInputRaw = "RAW"

	gridFields  googleapi.Field = "sheets(properties(gridProperties(columnCount,rowCount)))"
	titleFields googleapi.Field = "sheets(properties(title,sheetId))"
)

// Client reads and writes a single spreadsheet.
type Client struct {
	// service is the generated Sheets API service.
	service *sheetsapi.Service

	// spreadsheetID identifies the destination spreadsheet.
	spreadsheetID string
}

// Range is a block of rows written from column A of the given row.
type Range struct {
	// Row is the 1-based row of the first value row.
	Row int64

	// Sheet is the sheet (tab) title.
	Sheet string

	// Values holds one slice per row.
	Values [][]any
}

// A1 returns the range in A1 notation.
func (r Range) A1() string {
	return fmt.Sprintf("%s!A%d", quoteSheet(r.Sheet), r.Row)
}

// AppendRows grows the sheet with the given ID by length empty rows.
func (c *Client) AppendRows(ctx context.Context, sheetID int64, length int64) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AppendDimension: &sheetsapi.AppendDimensionRequest{
				Dimension: "ROWS",
				Length:    length,
				SheetId:   sheetID,
				// The first sheet of a spreadsheet has ID 0, which would otherwise be omitted.
				ForceSendFields: []string{"SheetId"},
			},
		}},
	}

	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("appending rows to sheet %d: %w", sheetID, err)
	}

	return nil
}

// BatchWrite writes all ranges in a single request.
// A write that runs past the sheet's row count returns a *CapacityError.
func (c *Client) BatchWrite(ctx context.Context, ranges []Range) error {
	data := make([]*sheetsapi.ValueRange, 0, len(ranges))
	for _, r := range ranges {
		data = append(data, &sheetsapi.ValueRange{
			Range:  r.A1(),
			Values: r.Values,
		})
	}

	req := &sheetsapi.BatchUpdateValuesRequest{
		Data:             data,
		ValueInputOption: valueInputRaw,
	}

	if _, err := c.service.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		if capErr := capacityError(err); capErr != nil {
			return capErr
		}
		return fmt.Errorf("writing %d ranges: %w", len(ranges), err)
	}

	return nil
}

// ReadRows returns the values of rows fromRow..toRow (inclusive) in columns A..lastColumn.
// Trailing empty rows are not returned, so an empty result means nothing is stored there.
func (c *Client) ReadRows(
	ctx context.Context,
	sheet string,
	lastColumn string,
	fromRow int64,
	toRow int64,
) ([][]string, error) {
	rng := fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), fromRow, lastColumn, toRow)

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading range %s: %w", rng, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}

	return rows, nil
}

// RowCount returns the number of rows the sheet currently has room for.
func (c *Client) RowCount(ctx context.Context, sheet string) (int64, error) {
	resp, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Ranges(quoteSheet(sheet)).
		Fields(gridFields).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("getting grid size of %s: %w", sheet, err)
	}

	if len(resp.Sheets) == 0 || resp.Sheets[0].Properties == nil || resp.Sheets[0].Properties.GridProperties == nil {
		return 0, fmt.Errorf("sheet %s not found", sheet)
	}

	return resp.Sheets[0].Properties.GridProperties.RowCount, nil
}

// SheetIDs returns the numeric sheet ID of every sheet, keyed by title.
func (c *Client) SheetIDs(ctx context.Context) (map[string]int64, error) {
	resp, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields(titleFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}

	ids := make(map[string]int64, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		ids[s.Properties.Title] = s.Properties.SheetId
	}

	return ids, nil
}

// NewClient creates a client for the given spreadsheet.
// Options are passed to the generated service, typically option.WithHTTPClient with an OAuth client.
func NewClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
