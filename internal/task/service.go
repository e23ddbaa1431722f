package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/httpx"
)

// AirdropChecker reports airdrop.ErrNotFound unless the airdrop belongs to
// the user.
type AirdropChecker interface {
	EnsureOwned(ctx context.Context, userID, id string) error
}

type Input struct {
	AirdropID   string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// Patch carries optional changes. ClearAirdrop detaches the task and
// ClearDueDate removes its due date.
type Patch struct {
	AirdropID    *string
	ClearAirdrop bool
	Title        *string
	Description  *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
}

type ListOptions struct {
	Filter
	Overdue bool
}

type Service struct {
	repo     Repository
	airdrops AirdropChecker
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, airdrops AirdropChecker, log *zap.Logger) *Service {
	return &Service{repo: repo, airdrops: airdrops, log: log, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Task, error) {
	t := &Task{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     utc(in.DueDate),
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if in.AirdropID != "" {
		if err := s.checkAirdrop(ctx, userID, in.AirdropID); err != nil {
			return nil, err
		}
		t.AirdropID = &in.AirdropID
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Task, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, opts ListOptions, q httpx.ListQuery) ([]Task, int64, error) {
	f := opts.Filter
	if opts.Overdue {
		now := s.now().UTC()
		f.OverdueAt = &now
	}
	return s.repo.List(ctx, userID, f, q)
}

func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*Task, error) {
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	switch {
	case p.ClearAirdrop:
		t.AirdropID = nil
	case p.AirdropID != nil:
		if err := s.checkAirdrop(ctx, userID, *p.AirdropID); err != nil {
			return nil, err
		}
		t.AirdropID = p.AirdropID
	}
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		t.DueDate = utc(p.DueDate)
	}
	if p.Completed != nil {
		s.setCompleted(t, *p.Completed)
	}

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Toggle(ctx context.Context, userID, id string) (*Task, error) {
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.setCompleted(t, !t.Completed)
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.repo.Stats(ctx, userID, s.now())
}

func (s *Service) setCompleted(t *Task, done bool) {
	if t.Completed == done {
		return
	}
	t.Completed = done
	if done {
		now := s.now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

func (s *Service) checkAirdrop(ctx context.Context, userID, airdropID string) error {
	err := s.airdrops.EnsureOwned(ctx, userID, airdropID)
	if errors.Is(err, airdrop.ErrNotFound) {
		return httpx.NewValidationError("airdropId", "must be one of your airdrops")
	}
	return err
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
