package auditlog

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"doubloon-tracker/core/audit"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *audit.Trail) {
	trail, err := audit.New(audit.Config{Dir: t.TempDir(), MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = trail.Close() })

	app := fiber.New()
	require.NoError(t, NewFeature(trail, zap.NewNop()).Load(app))
	return app, trail
}

func TestHandleTail(t *testing.T) {
	app, trail := setupTestApp(t)
	for _, who := range []string{"a", "b", "c"} {
		trail.Command("%s updated the leaderboard", who)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/logs/commands?lines=2", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Name  string   `json:"name"`
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "commands", body.Name)
	require.Len(t, body.Lines, 2)
	assert.Contains(t, body.Lines[0], "b updated the leaderboard")
	assert.Contains(t, body.Lines[1], "c updated the leaderboard")
}

func TestHandleTail_Empty(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/logs/points", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []any{}, body["lines"])
}

func TestHandleTail_BadRequests(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/logs/commands?lines=zero", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	for _, lines := range []string{"0", "1001", "35184372088832"} {
		resp, err = app.Test(httptest.NewRequest("GET", "/logs/commands?lines="+lines, nil))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode, "lines=%s", lines)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/logs/secrets", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleFull(t *testing.T) {
	app, trail := setupTestApp(t)
	trail.Error("Invalid reaction %s", "🍕")

	resp, err := app.Test(httptest.NewRequest("GET", "/logs/errors/full", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Invalid reaction 🍕")
}

func TestHandleList(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/logs", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.ElementsMatch(t, []string{"commands", "debug", "errors", "points"}, names)
}
