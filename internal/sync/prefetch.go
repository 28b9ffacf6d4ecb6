package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/stickylist/internal/apperror"
)

// PrefetchReport summarizes a Prefetch run.
type PrefetchReport struct {
	Checklists LoadResult
	// Tasks maps checklist ids to the outcome of loading their tasks.
	Tasks map[string]LoadResult
	// Failed maps checklist ids to load errors.
	Failed map[string]error
}

// Prefetch loads the checklist collection and then every checklist's task
// board with at most limit loads in flight, leaving the mirror warm for
// offline use. A rejected credential stops the run.
func Prefetch(ctx context.Context, f *Collections, limit int) (PrefetchReport, error) {
	report := PrefetchReport{
		Tasks:  make(map[string]LoadResult),
		Failed: make(map[string]error),
	}

	lists := f.Checklists()
	defer lists.Close()

	res, err := lists.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("loading checklists: %w", err)
	}
	report.Checklists = res
	if res.Source != SourceRemote {
		return report, nil
	}

	if limit < 1 {
		limit = 1
	}

	var mu gosync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, c := range lists.Items() {
		if c.IsLocal() {
			continue
		}
		id := c.ID
		g.Go(func() error {
			board := f.Tasks(id)
			defer board.Close()

			res, err := board.Load(gctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[id] = err
				f.logger.Warn("prefetching tasks", zap.String("checklist", id), zap.Error(err))
				if apperror.IsAuthExpired(err) {
					return err
				}
				return nil
			}
			report.Tasks[id] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("prefetching tasks: %w", err)
	}
	return report, nil
}
