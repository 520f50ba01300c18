package leaderboard

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/ranks"
	"doubloon-tracker/core/sheets/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, store *mocks.Store) *fiber.App {
	app := fiber.New()
	svc := NewService(abcUsers(), ranks.MustDefault(), store, Config{Sheet: "Sheet1", Link: "https://example.com/lb"}, zap.NewNop(), audit.Nop())
	sched := NewScheduler(svc, time.Minute, time.Minute, zap.NewNop(), audit.Nop())
	NewFeature(svc, sched, zap.NewNop()).Load(app)
	return app
}

func TestHandleSync(t *testing.T) {
	store := new(mocks.Store)
	store.On("LastModified", mock.Anything, "Sheet1").Return(time.Time{}, nil)
	store.On("ClearRegion", mock.Anything, "Sheet1", "A:B").Return(nil)
	store.On("WriteRegion", mock.Anything, "Sheet1", "A1:B3", mock.Anything).Return(nil)
	app := setupTestApp(t, store)

	resp, err := app.Test(httptest.NewRequest("POST", "/leaderboard/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(3), body["rows"])

	resp, err = app.Test(httptest.NewRequest("POST", "/leaderboard/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, err = app.Test(httptest.NewRequest("GET", "/leaderboard/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.True(t, st.Exported)
	assert.Equal(t, "https://example.com/lb", st.Link)
}

func TestHandleSync_ExternalFailure(t *testing.T) {
	store := new(mocks.Store)
	store.On("LastModified", mock.Anything, "Sheet1").Return(time.Time{}, errors.New("unreachable"))
	app := setupTestApp(t, store)

	resp, err := app.Test(httptest.NewRequest("POST", "/leaderboard/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}

var _ Syncer = (*Service)(nil)
