package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peteski22/campaignsync/internal/mailjet"
	"github.com/peteski22/campaignsync/internal/retry"
)

// fetcher turns the statistics of each campaign into write instructions,
// keeping the row bookkeeping of the shared state in campaign order.
type fetcher struct {
	api          ReportingAPI
	instructions []WriteInstruction
	logger       *slog.Logger
	policy       func(name string, store bool) retry.Policy
	result       *Result
	seen         map[any]struct{}
	state        *SyncState
}

// fetchCampaign collects the rows of all four datasets for one campaign.
// Headers are emitted with the first campaign of a run on a sheet without them.
func (f *fetcher) fetchCampaign(ctx context.Context, c Campaign, window Window) error {
	if f.state.HasHeaders == nil {
		noHeaders := false
		f.state.HasHeaders = &noHeaders
	}

	if err := f.fetchCounters(ctx, c, window); err != nil {
		return fmt.Errorf("daily counters: %w", err)
	}
	if err := f.fetchLinks(ctx, c); err != nil {
		return fmt.Errorf("link clicks: %w", err)
	}
	if err := f.fetchUserAgents(ctx, c); err != nil {
		return fmt.Errorf("user agents: %w", err)
	}
	if err := f.fetchRegions(ctx, c); err != nil {
		return fmt.Errorf("regions: %w", err)
	}

	hasHeaders := true
	f.state.HasHeaders = &hasHeaders

	return nil
}

// fetchCounters appends one row per day of the window. Days are fetched once, so rows are never updated.
func (f *fetcher) fetchCounters(ctx context.Context, c Campaign, window Window) error {
	var counters []mailjet.StatCounter
	if !window.Empty() {
		var err error
		counters, err = retry.Do(ctx, f.policy("campaign counters", false), func(ctx context.Context) ([]mailjet.StatCounter, error) {
			return f.api.CampaignCounters(ctx, c.ID, window.FromTS(), window.ToTS())
		})
		if err != nil {
			return err
		}
	}

	f.header(DatasetCampaign)

	rows := make([][]any, 0, len(counters))
	for _, counter := range counters {
		row := campaignRow(c.Title, counter)
		if date, _ := row[0].(string); date > f.result.LastCampaignDate {
			f.result.LastCampaignDate = date
		}
		rows = append(rows, row)
	}
	f.appendRows(DatasetCampaign, rows)

	return nil
}

func (f *fetcher) fetchLinks(ctx context.Context, c Campaign) error {
	clicks, err := retry.Do(ctx, f.policy("link clicks", false), func(ctx context.Context) ([]mailjet.LinkClick, error) {
		return f.api.LinkClicks(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	f.header(DatasetLink)

	var fresh [][]any
	for _, click := range clicks {
		values := []any{
			c.Title,
			click.URL,
			click.ClickedMessagesCount,
			click.ClickedEventsCount,
			click.PositionIndex,
		}
		place(f, DatasetLink, f.state.LinkRows, LinkKey{Title: c.Title, URL: click.URL}, values, &fresh)
	}
	f.appendRows(DatasetLink, fresh)

	return nil
}

func (f *fetcher) fetchUserAgents(ctx context.Context, c Campaign) error {
	stats, err := retry.Do(ctx, f.policy("user agent statistics", false), func(ctx context.Context) ([]mailjet.UserAgentStat, error) {
		return f.api.UserAgentStats(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	f.header(DatasetUserAgent)

	var fresh [][]any
	for _, stat := range stats {
		values := []any{
			c.Title,
			stat.Platform,
			stat.UserAgent,
			stat.DistinctCount,
			stat.Count,
		}
		key := UserAgentKey{Title: c.Title, Platform: stat.Platform, UserAgent: stat.UserAgent}
		place(f, DatasetUserAgent, f.state.UserAgentRows, key, values, &fresh)
	}
	f.appendRows(DatasetUserAgent, fresh)

	return nil
}

func (f *fetcher) fetchRegions(ctx context.Context, c Campaign) error {
	stats, err := retry.Do(ctx, f.policy("geo statistics", false), func(ctx context.Context) ([]mailjet.GeoStat, error) {
		return f.api.GeoStats(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	f.header(DatasetRegion)

	var fresh [][]any
	for _, stat := range stats {
		values := []any{
			c.Title,
			stat.Country,
			stat.ClickedCount,
			stat.OpenedCount,
		}
		place(f, DatasetRegion, f.state.RegionRows, RegionKey{Title: c.Title, Country: stat.Country}, values, &fresh)
	}
	f.appendRows(DatasetRegion, fresh)

	return nil
}

// header emits the header row of the dataset while the sheet has none.
func (f *fetcher) header(d Dataset) {
	if f.state.headersPresent() {
		return
	}
	f.emit(d, 1, [][]any{d.headers()})
	f.result.HeaderWrites++
}

// appendRows emits rows at the dataset's next free row and advances it.
func (f *fetcher) appendRows(d Dataset, rows [][]any) {
	if len(rows) == 0 {
		return
	}

	next := f.state.NextRows.of(d)
	f.emit(d, *next, rows)
	*next += int64(len(rows))
	f.result.Appended.add(d, len(rows))
}

func (f *fetcher) emit(d Dataset, row int64, rows [][]any) {
	f.instructions = append(f.instructions, WriteInstruction{
		Dataset: d,
		Row:     row,
		Rows:    rows,
	})
}

// place emits an update when the key already has a row, or queues the values for appending.
// A key is written once per run: the first record wins and later records with the same key
// (the same URL at two positions of one email) are dropped.
// Queued keys are indexed with the row they will be appended at.
func place[K comparable](f *fetcher, d Dataset, index map[K]int64, key K, values []any, fresh *[][]any) {
	if f.seen == nil {
		f.seen = make(map[any]struct{})
	}
	if _, ok := f.seen[key]; ok {
		f.result.Duplicates.add(d, 1)
		f.logger.Debug("skipping repeated row", "dataset", d, "key", key)
		return
	}
	f.seen[key] = struct{}{}

	if row, ok := index[key]; ok {
		f.emit(d, row, [][]any{values})
		f.result.Updated.add(d, 1)
		return
	}

	index[key] = *f.state.NextRows.of(d) + int64(len(*fresh))
	*fresh = append(*fresh, values)
}

// campaignRow maps a day of counters to the campaign dataset columns.
func campaignRow(title string, c mailjet.StatCounter) []any {
	date := c.Timeslice
	if len(date) > len(dateLayout) {
		date = date[:len(dateLayout)]
	}

	return []any{
		date,
		title,
		c.MessageSentCount,
		c.MessageBlockedCount,
		c.MessageSoftBouncedCount,
		c.MessageHardBouncedCount,
		c.MessageOpenedCount,
		c.EventOpenedCount,
		c.EventClickedCount,
		c.MessageClickedCount,
		c.EventClickedCount,
		c.MessageUnsubscribedCount,
		c.MessageSpamCount,
		safeAverage(c.EventOpenDelay, c.MessageOpenedCount),
		safeAverage(c.EventClickDelay, c.MessageClickedCount),
	}
}

// safeAverage divides sum by count, returning 0 when count is 0.
func safeAverage(sum float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
