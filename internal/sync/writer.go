package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peteski22/campaignsync/internal/retry"
	"github.com/peteski22/campaignsync/internal/sheets"
)

const (
	// batchSize is the number of write instructions per bulk write.
	batchSize = 100

	// expansionRows is how many rows a full sheet is grown by.
	expansionRows = 1000

	// maxExpansions bounds the expand-and-resubmit cycles of a single batch.
	maxExpansions = 50
)

// write submits the instructions in batches, growing sheets that run out of rows.
func (s *Service) write(ctx context.Context, logger *slog.Logger, instructions []WriteInstruction, result *Result) error {
	if len(instructions) == 0 {
		logger.InfoContext(ctx, "nothing to write")
		return nil
	}

	sheetIDs, err := retry.Do(ctx, s.policy("list sheets", true), func(ctx context.Context) (map[string]int64, error) {
		return s.store.SheetIDs(ctx)
	})
	if err != nil {
		return fmt.Errorf("listing sheets: %w", err)
	}

	for start := 0; start < len(instructions); start += batchSize {
		end := min(start+batchSize, len(instructions))

		ranges := make([]sheets.Range, 0, end-start)
		for _, ins := range instructions[start:end] {
			ranges = append(ranges, sheets.Range{
				Row:    ins.Row,
				Sheet:  ins.Dataset.Sheet(s.prefix),
				Values: ins.Rows,
			})
		}

		if err := s.submit(ctx, logger, sheetIDs, ranges, result); err != nil {
			return fmt.Errorf("writing instructions %d-%d: %w", start, end-1, err)
		}
		result.Batches++
	}

	return nil
}

// submit writes one batch. A write rejected for running past a sheet's grid grows that sheet
// and resubmits the unchanged batch, up to maxExpansions times.
func (s *Service) submit(
	ctx context.Context,
	logger *slog.Logger,
	sheetIDs map[string]int64,
	ranges []sheets.Range,
	result *Result,
) error {
	for expansions := 0; ; expansions++ {
		overflow, err := retry.Do(ctx, s.policy("write batch", true), func(ctx context.Context) (*sheets.CapacityError, error) {
			err := s.store.BatchWrite(ctx, ranges)

			var capErr *sheets.CapacityError
			if errors.As(err, &capErr) {
				return capErr, nil
			}
			return nil, err
		})
		if err != nil {
			return err
		}
		if overflow == nil {
			return nil
		}

		if expansions == maxExpansions {
			return fmt.Errorf("sheet %s still full after %d expansions: %w", overflow.Sheet, maxExpansions, overflow)
		}

		sheetID, ok := sheetIDs[overflow.Sheet]
		if !ok {
			return fmt.Errorf("expanding unknown sheet %q: %w", overflow.Sheet, overflow)
		}

		err = retry.Run(ctx, s.policy("expand "+overflow.Sheet, true), func(ctx context.Context) error {
			return s.store.AppendRows(ctx, sheetID, expansionRows)
		})
		if err != nil {
			return fmt.Errorf("expanding sheet %s: %w", overflow.Sheet, err)
		}
		result.Expansions++

		logger.InfoContext(ctx, "expanded sheet",
			"sheet", overflow.Sheet,
			"max_rows", overflow.MaxRows,
			"increment", expansionRows)
	}
}
