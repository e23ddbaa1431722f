package tag

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Input struct {
	Name  string
	Color string
}

type Patch struct {
	Name  *string
	Color *string
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Tag, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.ensureNameFree(ctx, userID, name, ""); err != nil {
		return nil, err
	}

	t := &Tag{UserID: userID, Name: name, Color: normalizeColor(in.Color)}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Tag, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*Tag, error) {
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := s.ensureNameFree(ctx, userID, name, t.ID); err != nil {
			return nil, err
		}
		t.Name = name
	}
	if p.Color != nil {
		t.Color = normalizeColor(*p.Color)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// ResolveOwned loads the tags with ids, failing with ErrNotFound unless every
// one of them belongs to userID.
func (s *Service) ResolveOwned(ctx context.Context, userID string, ids []string) ([]Tag, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []Tag{}, nil
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, ErrNotFound
		}
	}

	tags, err := s.repo.FindOwned(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, ErrNotFound
	}
	return tags, nil
}

func (s *Service) ensureNameFree(ctx context.Context, userID, name, selfID string) error {
	existing, err := s.repo.GetByName(ctx, userID, name)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return ErrDuplicateName
	}
	return nil
}

func normalizeColor(c string) string {
	if c == "" {
		return DefaultColor
	}
	return strings.ToUpper(c)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
