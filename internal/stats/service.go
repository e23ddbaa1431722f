package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/task"
)

type AirdropStats interface {
	Stats(ctx context.Context, userID string) (airdrop.Stats, error)
}

type TaskStats interface {
	Stats(ctx context.Context, userID string) (task.Stats, error)
}

// Summary is the dashboard payload for one user.
type Summary struct {
	Airdrops airdrop.Stats `json:"airdrops"`
	Tasks    task.Stats    `json:"tasks"`
}

type Service struct {
	airdrops AirdropStats
	tasks    TaskStats
}

func NewService(airdrops AirdropStats, tasks TaskStats) *Service {
	return &Service{airdrops: airdrops, tasks: tasks}
}

// Summary queries both counters concurrently and fails if either does.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		st, err := s.airdrops.Stats(ctx, userID)
		out.Airdrops = st
		return err
	})
	g.Go(func() error {
		st, err := s.tasks.Stats(ctx, userID)
		out.Tasks = st
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}
