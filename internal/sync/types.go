// Package sync reconciles Mailjet campaign statistics with the destination spreadsheet.
package sync

import (
	"context"
	"time"

	"github.com/peteski22/campaignsync/internal/mailjet"
	"github.com/peteski22/campaignsync/internal/sheets"
	"github.com/peteski22/campaignsync/internal/storage"
)

// firstDataRow is the first row below the header row.
const firstDataRow = 2

// Campaign is a campaign selected for the current run.
type Campaign struct {
	// ID is the Mailjet campaign identifier.
	ID int64

	// Title joins the campaign's rows across all datasets.
	Title string
}

// LinkKey identifies a row of the link dataset.
type LinkKey struct {
	Title string
	URL   string
}

// NextRows holds the next free row of each dataset.
type NextRows struct {
	Campaign  int64
	Link      int64
	Region    int64
	UserAgent int64
}

// RegionKey identifies a row of the region dataset.
type RegionKey struct {
	Country string
	Title   string
}

// ReportingAPI is the subset of the Mailjet client used by the sync.
type ReportingAPI interface {
	// CampaignCounters returns the daily counters of a campaign between from and to.
	CampaignCounters(ctx context.Context, campaignID int64, from string, to string) ([]mailjet.StatCounter, error)

	// Campaigns lists the campaigns of the given period.
	Campaigns(ctx context.Context, period mailjet.Period) ([]mailjet.Campaign, error)

	// GeoStats returns the per-country statistics of a campaign.
	GeoStats(ctx context.Context, campaignID int64) ([]mailjet.GeoStat, error)

	// LinkClicks returns the most clicked links of a campaign.
	LinkClicks(ctx context.Context, campaignID int64) ([]mailjet.LinkClick, error)

	// UserAgentStats returns the user agents that opened a campaign.
	UserAgentStats(ctx context.Context, campaignID int64) ([]mailjet.UserAgentStat, error)
}

// Result contains the outcome of a sync run.
type Result struct {
	// Appended counts rows written below the existing data, per dataset.
	Appended DatasetCounts

	// Batches is the number of bulk writes submitted.
	Batches int

	// Campaigns is the number of campaigns processed.
	Campaigns int

	// CountersSkipped is set when the time window was empty and no daily counters were fetched.
	CountersSkipped bool

	// DryRun indicates writes were logged instead of executed.
	DryRun bool

	// Duplicates counts records dropped because their key was already written in the run, per dataset.
	Duplicates DatasetCounts

	// Expansions is the number of times a sheet was grown.
	Expansions int

	// HeaderWrites is the number of header rows written.
	HeaderWrites int

	// LastCampaignDate is the most recent date in the campaign sheet once the run's rows are written.
	LastCampaignDate string

	// Period is the campaign listing period used.
	Period mailjet.Period

	// RunID identifies the run in logs.
	RunID string

	// Updated counts existing rows overwritten, per dataset.
	Updated DatasetCounts

	// WindowFrom is the start of the daily counter window.
	WindowFrom string

	// WindowTo is the end of the daily counter window.
	WindowTo string
}

// RunRecorder keeps the status of the last successful run for monitoring.
type RunRecorder interface {
	// LastRun returns the recorded status, or a zero status.
	LastRun(ctx context.Context) (storage.RunStatus, error)

	// RecordRun stores status as the last successful run.
	RecordRun(ctx context.Context, status storage.RunStatus) error
}

// SyncState is what the spreadsheet already holds, threaded through a single run.
type SyncState struct {
	// CampaignPeriod is the listing period requested from Mailjet.
	CampaignPeriod mailjet.Period

	// HasHeaders is nil until the campaign sheet has been read.
	HasHeaders *bool

	// LastCampaignDate is the most recent date in the campaign sheet, nil when empty.
	LastCampaignDate *time.Time

	// LinkRows maps existing link rows to their row number.
	LinkRows map[LinkKey]int64

	// NextRows holds the next free row per dataset.
	NextRows NextRows

	// RegionRows maps existing region rows to their row number.
	RegionRows map[RegionKey]int64

	// UserAgentRows maps existing user agent rows to their row number.
	UserAgentRows map[UserAgentKey]int64
}

// TabularStore is the spreadsheet the statistics are written to.
type TabularStore interface {
	// AppendRows grows the sheet with the given ID by length rows.
	AppendRows(ctx context.Context, sheetID int64, length int64) error

	// BatchWrite writes all ranges, returning a *sheets.CapacityError when a range runs past the grid.
	BatchWrite(ctx context.Context, ranges []sheets.Range) error

	// ReadRows returns rows fromRow..toRow of columns A..lastColumn, without trailing empty rows.
	ReadRows(ctx context.Context, sheet string, lastColumn string, fromRow int64, toRow int64) ([][]string, error)

	// RowCount returns the number of rows of the sheet grid.
	RowCount(ctx context.Context, sheet string) (int64, error)

	// SheetIDs returns the numeric ID of every sheet, keyed by title.
	SheetIDs(ctx context.Context) (map[string]int64, error)
}

// UserAgentKey identifies a row of the user agent dataset.
type UserAgentKey struct {
	Platform  string
	Title     string
	UserAgent string
}

// WriteInstruction is a block of rows to write from column A of Row.
type WriteInstruction struct {
	// Dataset selects the destination sheet.
	Dataset Dataset

	// Row is the 1-based row of the first value row.
	Row int64

	// Rows holds the values, one slice per row.
	Rows [][]any
}

// DatasetCounts holds a counter per dataset.
type DatasetCounts struct {
	Campaign  int
	Link      int
	Region    int
	UserAgent int
}

// Total returns the sum over all datasets.
func (c DatasetCounts) Total() int {
	return c.Campaign + c.Link + c.Region + c.UserAgent
}

func (c *DatasetCounts) add(d Dataset, n int) {
	switch d {
	case DatasetCampaign:
		c.Campaign += n
	case DatasetLink:
		c.Link += n
	case DatasetRegion:
		c.Region += n
	case DatasetUserAgent:
		c.UserAgent += n
	}
}

// of returns the counter of the dataset.
func (n *NextRows) of(d Dataset) *int64 {
	switch d {
	case DatasetCampaign:
		return &n.Campaign
	case DatasetLink:
		return &n.Link
	case DatasetRegion:
		return &n.Region
	case DatasetUserAgent:
		return &n.UserAgent
	default:
		panic("unknown dataset " + d.String())
	}
}

// headersPresent reports whether the header rows are known to exist.
// An unresolved state counts as absent.
func (s *SyncState) headersPresent() bool {
	return s.HasHeaders != nil && *s.HasHeaders
}

func newSyncState() *SyncState {
	return &SyncState{
		CampaignPeriod: mailjet.PeriodYear,
		LinkRows:       make(map[LinkKey]int64),
		NextRows: NextRows{
			Campaign:  firstDataRow,
			Link:      firstDataRow,
			Region:    firstDataRow,
			UserAgent: firstDataRow,
		},
		RegionRows:    make(map[RegionKey]int64),
		UserAgentRows: make(map[UserAgentKey]int64),
	}
}
