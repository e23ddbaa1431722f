package tag

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/database/dbtest"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &Tag{})
	require.NoError(t, db.Exec("CREATE TABLE airdrop_tags (airdrop_id TEXT NOT NULL, tag_id TEXT NOT NULL, PRIMARY KEY (airdrop_id, tag_id))").Error)
	return NewService(NewRepository(db, time.Second), zap.NewNop()), db
}

func TestService_CreateAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	zk, err := svc.Create(ctx, userID, Input{Name: " zkSync ", Color: "#a1b2c3"})
	require.NoError(t, err)
	assert.Equal(t, "zkSync", zk.Name)
	assert.Equal(t, "#A1B2C3", zk.Color)

	arb, err := svc.Create(ctx, userID, Input{Name: "Arbitrum"})
	require.NoError(t, err)
	assert.Equal(t, DefaultColor, arb.Color)

	_, err = svc.Create(ctx, userID, Input{Name: "ZKSYNC"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.Create(ctx, uuid.NewString(), Input{Name: "zkSync"})
	assert.NoError(t, err, "names are unique per user only")

	tags, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Arbitrum", tags[0].Name)
	assert.Equal(t, "zkSync", tags[1].Name)
}

func TestService_Update(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	a, err := svc.Create(ctx, userID, Input{Name: "alpha"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, Input{Name: "beta"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, userID, a.ID, Patch{Name: ptr("Beta")})
	assert.ErrorIs(t, err, ErrDuplicateName)

	got, err := svc.Update(ctx, userID, a.ID, Patch{Name: ptr("Alpha"), Color: ptr("#000000")})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
	assert.Equal(t, "#000000", got.Color)

	_, err = svc.Update(ctx, uuid.NewString(), a.ID, Patch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeleteRemovesLinks(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	a, err := svc.Create(ctx, userID, Input{Name: "alpha"})
	require.NoError(t, err)
	airdropID := uuid.NewString()
	require.NoError(t, db.Exec("INSERT INTO airdrop_tags (airdrop_id, tag_id) VALUES (?, ?)", airdropID, a.ID).Error)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.NewString(), a.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, userID, a.ID))

	var links int64
	require.NoError(t, db.Table("airdrop_tags").Where("tag_id = ?", a.ID).Count(&links).Error)
	assert.Zero(t, links)

	assert.ErrorIs(t, svc.Delete(ctx, userID, a.ID), ErrNotFound)
}

func TestService_ResolveOwned(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	a, err := svc.Create(ctx, userID, Input{Name: "alpha"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, userID, Input{Name: "beta"})
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, uuid.NewString(), Input{Name: "gamma"})
	require.NoError(t, err)

	tags, err := svc.ResolveOwned(ctx, userID, []string{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	tags, err = svc.ResolveOwned(ctx, userID, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = svc.ResolveOwned(ctx, userID, []string{a.ID, foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ResolveOwned(ctx, userID, []string{"not-a-uuid"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func ptr[T any](v T) *T {
	return &v
}
