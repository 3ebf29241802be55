package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/campaignsync/internal/mailjet"
	"github.com/peteski22/campaignsync/internal/sheets"
	"github.com/peteski22/campaignsync/internal/storage"
)

const testPrefix = "Mailjet"

// testNow is the fixed clock of the service tests.
var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSheet is a sheet grid with a fixed number of rows.
type fakeSheet struct {
	id       int64
	rowCount int64
	rows     map[int64][]any
}

type appendCall struct {
	length  int64
	sheetID int64
}

// fakeStore is an in-memory TabularStore that rejects writes past a sheet's grid
// the way the Sheets API does.
type fakeStore struct {
	appendCalls []appendCall
	fixedGrid   bool
	reads       int
	sheets      map[string]*fakeSheet
	writeErrs   []error
	writes      [][]sheets.Range
}

func newFakeStore(rowCount int64) *fakeStore {
	store := &fakeStore{sheets: make(map[string]*fakeSheet)}
	for i, d := range Datasets {
		store.sheets[d.Sheet(testPrefix)] = &fakeSheet{
			id:       int64(i),
			rowCount: rowCount,
			rows:     make(map[int64][]any),
		}
	}
	return store
}

func (f *fakeStore) sheet(d Dataset) *fakeSheet {
	return f.sheets[d.Sheet(testPrefix)]
}

// set stores values at a row of a dataset.
func (f *fakeStore) set(d Dataset, row int64, values ...any) {
	f.sheet(d).rows[row] = values
}

// rowsOf returns the non-empty rows of a dataset keyed by row number.
func (f *fakeStore) rowsOf(d Dataset) map[int64][]any {
	out := make(map[int64][]any)
	for row, values := range f.sheet(d).rows {
		out[row] = values
	}
	return out
}

func (f *fakeStore) AppendRows(_ context.Context, sheetID int64, length int64) error {
	f.appendCalls = append(f.appendCalls, appendCall{length: length, sheetID: sheetID})
	for _, sh := range f.sheets {
		if sh.id == sheetID {
			if !f.fixedGrid {
				sh.rowCount += length
			}
			return nil
		}
	}
	return fmt.Errorf("no sheet with id %d", sheetID)
}

func (f *fakeStore) BatchWrite(_ context.Context, ranges []sheets.Range) error {
	if len(f.writeErrs) > 0 {
		err := f.writeErrs[0]
		f.writeErrs = f.writeErrs[1:]
		return err
	}

	for _, r := range ranges {
		sh, ok := f.sheets[r.Sheet]
		if !ok {
			return fmt.Errorf("unable to parse range: %s", r.A1())
		}
		if last := r.Row + int64(len(r.Values)) - 1; last > sh.rowCount {
			return &sheets.CapacityError{
				Err:     errors.New("exceeds grid limits"),
				MaxRows: sh.rowCount,
				Sheet:   r.Sheet,
			}
		}
	}

	for _, r := range ranges {
		sh := f.sheets[r.Sheet]
		for i, values := range r.Values {
			sh.rows[r.Row+int64(i)] = values
		}
	}
	f.writes = append(f.writes, ranges)

	return nil
}

func (f *fakeStore) ReadRows(_ context.Context, sheet string, lastColumn string, fromRow int64, toRow int64) ([][]string, error) {
	f.reads++

	sh, ok := f.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", sheet)
	}

	width := int(lastColumn[0]-'A') + 1
	var out [][]string
	lastNonEmpty := 0
	for row := fromRow; row <= toRow && row <= sh.rowCount; row++ {
		var cells []string
		for i, v := range sh.rows[row] {
			if i >= width {
				break
			}
			cells = append(cells, fmt.Sprint(v))
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
		if len(cells) > 0 {
			lastNonEmpty = len(out)
		}
	}

	return out[:lastNonEmpty], nil
}

func (f *fakeStore) RowCount(_ context.Context, sheet string) (int64, error) {
	sh, ok := f.sheets[sheet]
	if !ok {
		return 0, fmt.Errorf("sheet %s not found", sheet)
	}
	return sh.rowCount, nil
}

func (f *fakeStore) SheetIDs(_ context.Context) (map[string]int64, error) {
	ids := make(map[string]int64, len(f.sheets))
	for title, sh := range f.sheets {
		ids[title] = sh.id
	}
	return ids, nil
}

// headerWrites counts the ranges written at row 1, per sheet.
func (f *fakeStore) headerWrites() map[string]int {
	counts := make(map[string]int)
	for _, batch := range f.writes {
		for _, r := range batch {
			if r.Row == 1 {
				counts[r.Sheet]++
			}
		}
	}
	return counts
}

type counterCall struct {
	campaignID int64
	from       string
	to         string
}

// fakeReporting serves canned statistics. Daily counters are filtered by the requested window.
type fakeReporting struct {
	campaigns     []mailjet.Campaign
	campaignsErrs []error
	counterCalls  []counterCall
	counters      map[int64][]mailjet.StatCounter
	geo           map[int64][]mailjet.GeoStat
	links         map[int64][]mailjet.LinkClick
	periods       []mailjet.Period
	userAgents    map[int64][]mailjet.UserAgentStat
}

func (f *fakeReporting) CampaignCounters(_ context.Context, campaignID int64, from string, to string) ([]mailjet.StatCounter, error) {
	f.counterCalls = append(f.counterCalls, counterCall{campaignID: campaignID, from: from, to: to})

	fromTime, err := time.Parse(timestampLayout, from)
	if err != nil {
		return nil, err
	}
	toTime, err := time.Parse(timestampLayout, to)
	if err != nil {
		return nil, err
	}

	var out []mailjet.StatCounter
	for _, c := range f.counters[campaignID] {
		ts, err := time.Parse(time.RFC3339, c.Timeslice)
		if err != nil {
			return nil, err
		}
		if !ts.Before(fromTime) && ts.Before(toTime) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeReporting) Campaigns(_ context.Context, period mailjet.Period) ([]mailjet.Campaign, error) {
	f.periods = append(f.periods, period)
	if len(f.campaignsErrs) > 0 {
		err := f.campaignsErrs[0]
		f.campaignsErrs = f.campaignsErrs[1:]
		return nil, err
	}
	return f.campaigns, nil
}

func (f *fakeReporting) GeoStats(_ context.Context, campaignID int64) ([]mailjet.GeoStat, error) {
	return f.geo[campaignID], nil
}

func (f *fakeReporting) LinkClicks(_ context.Context, campaignID int64) ([]mailjet.LinkClick, error) {
	return f.links[campaignID], nil
}

func (f *fakeReporting) UserAgentStats(_ context.Context, campaignID int64) ([]mailjet.UserAgentStat, error) {
	return f.userAgents[campaignID], nil
}

// recordingSleeper captures retry delays without blocking.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

// fakeRecorder is an in-memory RunRecorder.
type fakeRecorder struct {
	last      storage.RunStatus
	recordErr error
	recorded  []storage.RunStatus
}

func (f *fakeRecorder) LastRun(_ context.Context) (storage.RunStatus, error) {
	return f.last, nil
}

func (f *fakeRecorder) RecordRun(_ context.Context, status storage.RunStatus) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, status)
	return nil
}

// newsletter is a campaign with three days of counters, two links, one user agent and one country.
func newsletter() *fakeReporting {
	return &fakeReporting{
		campaigns: []mailjet.Campaign{{
			CreatedAt:   "2024-03-09T08:00:00Z",
			FromName:    "Newsletter",
			ID:          7,
			SendStartAt: "2024-03-10T06:00:00Z",
			Subject:     "March news",
		}},
		counters: map[int64][]mailjet.StatCounter{
			7: {
				{Timeslice: "2024-03-10T00:00:00Z", MessageSentCount: 100, MessageOpenedCount: 40, EventOpenDelay: 4000},
				{Timeslice: "2024-03-11T00:00:00Z", MessageSentCount: 0, MessageOpenedCount: 5, EventOpenDelay: 100},
				{Timeslice: "2024-03-12T00:00:00Z", MessageClickedCount: 2, EventClickDelay: 30},
			},
		},
		geo: map[int64][]mailjet.GeoStat{
			7: {{ClickedCount: 3, Country: "FR", OpenedCount: 45}},
		},
		links: map[int64][]mailjet.LinkClick{
			7: {
				{ClickedEventsCount: 5, ClickedMessagesCount: 3, PositionIndex: 1, URL: "https://example.com/a"},
				{ClickedEventsCount: 1, ClickedMessagesCount: 1, PositionIndex: 2, URL: "https://example.com/b"},
			},
		},
		userAgents: map[int64][]mailjet.UserAgentStat{
			7: {{Count: 12, DistinctCount: 9, Platform: "Windows", UserAgent: "Outlook 2019"}},
		},
	}
}

const newsletterTitle = "Newsletter - 2024-03-09T08:00:00Z - March news"

func newTestService(t *testing.T, reporting ReportingAPI, store TabularStore, opts ...func(*Config)) (*Service, *recordingSleeper) {
	t.Helper()

	sleeper := &recordingSleeper{}
	cfg := Config{
		Logger:      discardLogger(),
		Now:         func() time.Time { return testNow },
		Reporting:   reporting,
		SheetPrefix: testPrefix,
		Sleep:       sleeper.sleep,
		Store:       store,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := New(cfg)
	require.NoError(t, err)

	return svc, sleeper
}

// snapshot renders every sheet for equality checks.
func (f *fakeStore) snapshot() string {
	var b strings.Builder
	for _, d := range Datasets {
		sh := f.sheet(d)
		fmt.Fprintf(&b, "%s rows=%d\n", d, sh.rowCount)
		for row := int64(1); row <= sh.rowCount; row++ {
			if values, ok := sh.rows[row]; ok {
				fmt.Fprintf(&b, "%d %v\n", row, values)
			}
		}
	}
	return b.String()
}
