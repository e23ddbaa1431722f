package airdrop

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/httpx"
	"github.com/elskow/airdrop-journal/internal/tag"
)

// TagResolver loads tags that must all belong to the user.
type TagResolver interface {
	ResolveOwned(ctx context.Context, userID string, ids []string) ([]tag.Tag, error)
}

type Input struct {
	Name           string
	Description    string
	Chain          string
	Status         string
	Website        string
	Twitter        string
	Discord        string
	Deadline       *time.Time
	EstimatedValue float64
	RewardValue    float64
	Notes          string
	Favorite       bool
	TagIDs         []string
}

// Patch carries optional changes. ClearDeadline removes the deadline;
// a nil TagIDs leaves tags untouched while an empty one removes them all.
type Patch struct {
	Name           *string
	Description    *string
	Chain          *string
	Status         *string
	Website        *string
	Twitter        *string
	Discord        *string
	Deadline       *time.Time
	ClearDeadline  bool
	EstimatedValue *float64
	RewardValue    *float64
	Notes          *string
	Favorite       *bool
	TagIDs         []string
}

type Service struct {
	repo Repository
	tags TagResolver
	log  *zap.Logger
}

func NewService(repo Repository, tags TagResolver, log *zap.Logger) *Service {
	return &Service{repo: repo, tags: tags, log: log}
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Airdrop, error) {
	tags, err := s.tags.ResolveOwned(ctx, userID, in.TagIDs)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = StatusPlanned
	}

	a := &Airdrop{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Chain:          strings.TrimSpace(in.Chain),
		Status:         status,
		Website:        in.Website,
		Twitter:        in.Twitter,
		Discord:        in.Discord,
		Deadline:       utc(in.Deadline),
		EstimatedValue: in.EstimatedValue,
		RewardValue:    in.RewardValue,
		Notes:          in.Notes,
		Favorite:       in.Favorite,
		Tags:           tags,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Airdrop, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, f Filter, q httpx.ListQuery) ([]Airdrop, int64, error) {
	return s.repo.List(ctx, userID, f, q)
}

func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*Airdrop, error) {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var tags []tag.Tag
	if p.TagIDs != nil {
		if tags, err = s.tags.ResolveOwned(ctx, userID, p.TagIDs); err != nil {
			return nil, err
		}
	}

	setString(&a.Name, trimmed(p.Name))
	setString(&a.Description, p.Description)
	setString(&a.Chain, trimmed(p.Chain))
	setString(&a.Status, p.Status)
	setString(&a.Website, p.Website)
	setString(&a.Twitter, p.Twitter)
	setString(&a.Discord, p.Discord)
	setString(&a.Notes, p.Notes)
	switch {
	case p.ClearDeadline:
		a.Deadline = nil
	case p.Deadline != nil:
		a.Deadline = utc(p.Deadline)
	}
	if p.EstimatedValue != nil {
		a.EstimatedValue = *p.EstimatedValue
	}
	if p.RewardValue != nil {
		a.RewardValue = *p.RewardValue
	}
	if p.Favorite != nil {
		a.Favorite = *p.Favorite
	}

	if err := s.repo.Update(ctx, a, tags); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, userID, id string) (*Airdrop, error) {
	a, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	a.Favorite = !a.Favorite
	if err := s.repo.Update(ctx, a, nil); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.log.Debug("airdrop deleted", zap.String("user_id", userID), zap.String("airdrop_id", id))
	return nil
}

// EnsureOwned returns ErrNotFound unless id is one of userID's airdrops.
func (s *Service) EnsureOwned(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Exists(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.repo.Stats(ctx, userID)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
