package sync

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/peteski22/campaignsync/internal/mailjet"
	"github.com/peteski22/campaignsync/internal/retry"
)

// listCampaigns returns the campaigns of the period, oldest send first.
func (s *Service) listCampaigns(ctx context.Context, logger *slog.Logger, period mailjet.Period) ([]Campaign, error) {
	listed, err := retry.Do(ctx, s.policy("list campaigns", false), func(ctx context.Context) ([]mailjet.Campaign, error) {
		return s.reporting.Campaigns(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(listed, func(a, b mailjet.Campaign) int {
		return cmp.Compare(a.SendStartAt, b.SendStartAt)
	})

	campaigns := make([]Campaign, 0, len(listed))
	for _, c := range listed {
		campaigns = append(campaigns, Campaign{
			ID:    c.ID,
			Title: campaignTitle(c),
		})
	}

	logger.InfoContext(ctx, "listed campaigns", "period", period, "count", len(campaigns))

	return campaigns, nil
}

// campaignTitle joins sender, creation time and subject into the title shared by all datasets.
func campaignTitle(c mailjet.Campaign) string {
	return fmt.Sprintf("%s - %s - %s", c.FromName, c.CreatedAt, c.Subject)
}
