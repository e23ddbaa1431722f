package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/database"
	"github.com/elskow/airdrop-journal/internal/task"
)

type airdropStub struct {
	stats  airdrop.Stats
	err    error
	userID string
}

func (s *airdropStub) Stats(_ context.Context, userID string) (airdrop.Stats, error) {
	s.userID = userID
	return s.stats, s.err
}

type taskStub struct {
	stats task.Stats
	err   error
}

func (s *taskStub) Stats(context.Context, string) (task.Stats, error) {
	return s.stats, s.err
}

func TestService_Summary(t *testing.T) {
	airdrops := &airdropStub{stats: airdrop.Stats{Total: 3, Favorites: 1, ByStatus: map[string]int64{"active": 3}}}
	tasks := &taskStub{stats: task.Stats{Total: 4, Completed: 1, Pending: 3}}

	got, err := NewService(airdrops, tasks).Summary(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", airdrops.userID)
	assert.EqualValues(t, 3, got.Airdrops.Total)
	assert.EqualValues(t, 3, got.Tasks.Pending)
}

func TestService_SummaryPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewService(&airdropStub{}, &taskStub{err: boom}).Summary(context.Background(), "u")
	assert.ErrorIs(t, err, boom)

	_, err = NewService(&airdropStub{err: boom}, &taskStub{}).Summary(context.Background(), "u")
	assert.ErrorIs(t, err, boom)
}

func TestHandler_TransientFailureIsRetryable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(&airdropStub{err: database.ErrTransient}, &taskStub{}), zap.NewNop())

	r := gin.New()
	r.GET("/stats", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
