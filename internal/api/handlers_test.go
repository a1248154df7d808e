package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/internal/metrics"
	"github.com/nikitakuklev/stepperd/internal/websocket"
	"github.com/nikitakuklev/stepperd/pkg/motion"
)

func newTestApp(t *testing.T) (*fiber.App, *motion.Registry, string) {
	t.Helper()

	h := hal.NewMockHAL()
	global := motion.NewGlobal(h)
	registry := motion.NewRegistry()

	d := &motion.Descriptor{
		UUID:              "11111111-1111-1111-1111-111111111111",
		ShortName:         "x",
		FriendlyName:      "X Axis",
		PinDirection:      17,
		PinStep:           27,
		PinEnable:         22,
		PinSleep:          10,
		PinLimitUp:        5,
		PinLimitDown:      6,
		LimitUpHitLevel:   true,
		LimitDownHitLevel: true,
		StepSize:          1,
		Jerk:              100,
		Velocity:          2000,
		Acceleration:      1000,
	}
	m, err := motion.NewMotor(d, global)
	require.NoError(t, err)
	require.NoError(t, registry.Register(m))
	t.Cleanup(registry.Shutdown)

	wsHub := websocket.NewHub()
	go wsHub.Run()

	svc := NewService(registry, global, h, wsHub, metrics.NewMetrics())
	t.Cleanup(svc.Shutdown)

	handler := NewHandler(svc)
	app := fiber.New()
	handler.SetupRoutes(app)

	return app, registry, d.UUID
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestListMotors(t *testing.T) {
	app, _, uuid := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/motors/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Motors map[string]motion.Snapshot `json:"motors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Motors, uuid)
}

func TestGetMotorUnknownUUID(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/motors/does-not-exist/", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMoveAndStop(t *testing.T) {
	app, _, uuid := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/move/", moveRequest{
		UUID: uuid, Dir: int(motion.Up), Steps: 500,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var moveBody struct {
		Result motion.Result `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&moveBody))
	assert.Equal(t, motion.ResultQueued, moveBody.Result)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/stop/", map[string]string{"uuid": uuid})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMotionConfigAcceptedWhileDisabled(t *testing.T) {
	app, registry, uuid := newTestApp(t)

	m, ok := registry.Get(uuid)
	require.True(t, ok)
	require.Equal(t, motion.Disabled, m.Snapshot().Status)

	velocity := 500.0
	resp := doJSON(t, app, http.MethodPost, "/api/v1/config/motion", motionConfigRequest{
		UUID:               uuid,
		MotionConfigUpdate: MotionConfigUpdate{Velocity: &velocity},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMotionConfigRejectedOutOfRange(t *testing.T) {
	app, _, uuid := newTestApp(t)

	tooHigh := float64(motion.MaxKinematicValue)
	resp := doJSON(t, app, http.MethodPost, "/api/v1/config/motion", motionConfigRequest{
		UUID:               uuid,
		MotionConfigUpdate: MotionConfigUpdate{Velocity: &tooHigh},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBoardInfo(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/board", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoints(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/metrics", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/metrics/prometheus", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
