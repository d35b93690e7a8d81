package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alkime/screentalk/internal/controller"
	"github.com/alkime/screentalk/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	phase    atomic.Int32
	accept   atomic.Bool
	triggers atomic.Int32
	resets   atomic.Int32
}

func (f *fakeController) Phase() controller.Phase { return controller.Phase(f.phase.Load()) }

func (f *fakeController) Trigger() bool {
	f.triggers.Add(1)
	if !f.accept.Load() {
		return false
	}
	f.phase.Store(int32(controller.Loading))
	return true
}

func (f *fakeController) Reset() bool {
	f.resets.Add(1)
	was := f.phase.Swap(int32(controller.Idle))
	return controller.Phase(was) != controller.Idle
}

func newTestServer(t *testing.T, transitions <-chan controller.Transition) (*server.Server, *fakeController) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := &fakeController{}
	ctrl.accept.Store(true)

	srv, err := server.New(ctrl, transitions, logger)
	require.NoError(t, err)

	return srv, ctrl
}

func do(t *testing.T, srv *server.Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	assert.Contains(t, w.Body.String(), "healthy", "Response should contain 'healthy'")
	assert.Contains(t, w.Body.String(), "screentalk", "Response should contain service name")
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/health")

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "connect-src 'self'")
}

func TestPhaseEndpoint(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)

	assert.Equal(t, "idle", decode(t, do(t, srv, http.MethodGet, "/api/v1/phase"))["phase"])

	ctrl.phase.Store(int32(controller.Talking))
	assert.Equal(t, "talking", decode(t, do(t, srv, http.MethodGet, "/api/v1/phase"))["phase"])
}

func TestTriggerEndpoint(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/api/v1/trigger")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "loading", decode(t, w)["phase"])

	ctrl.accept.Store(false)
	w = do(t, srv, http.MethodPost, "/api/v1/trigger")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "busy", decode(t, w)["error"])

	assert.Equal(t, int32(2), ctrl.triggers.Load())

	w = do(t, srv, http.MethodGet, "/api/v1/trigger")
	assert.NotEqual(t, http.StatusAccepted, w.Code, "trigger must not be reachable with GET")
	assert.Equal(t, int32(2), ctrl.triggers.Load())
}

func TestResetEndpoint(t *testing.T) {
	srv, ctrl := newTestServer(t, nil)

	body := decode(t, do(t, srv, http.MethodPost, "/api/v1/reset"))
	assert.Equal(t, false, body["reset"])

	ctrl.phase.Store(int32(controller.Talking))
	body = decode(t, do(t, srv, http.MethodPost, "/api/v1/reset"))
	assert.Equal(t, true, body["reset"])
	assert.Equal(t, "idle", body["phase"])
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := do(t, srv, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/events")

	w = do(t, srv, http.MethodGet, "/missing.js")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventStream(t *testing.T) {
	transitions := make(chan controller.Transition, 4)
	srv, _ := newTestServer(t, transitions)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-served)
	})

	reqCtx, cancelReq := context.WithTimeout(ctx, 5*time.Second)
	defer cancelReq()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+ln.Addr().String()+"/api/v1/events", nil)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Contains(t, res.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(res.Body)
	readData := func(event string) string {
		t.Helper()
		for lines.Scan() {
			if lines.Text() != "event:"+event {
				continue
			}
			require.True(t, lines.Scan())
			return strings.TrimPrefix(lines.Text(), "data:")
		}
		t.Fatalf("stream ended before %q event: %v", event, lines.Err())
		return ""
	}

	assert.JSONEq(t, `{"phase":"idle"}`, readData("phase"))

	transitions <- controller.Transition{
		Cycle: "c1",
		From:  controller.Loading,
		To:    controller.Idle,
		Cause: controller.CauseCaptureFailed,
		Err:   assert.AnError,
	}

	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(readData("transition")), &ev))
	assert.Equal(t, "c1", ev["cycle"])
	assert.Equal(t, "loading", ev["from"])
	assert.Equal(t, "idle", ev["to"])
	assert.Equal(t, controller.CauseCaptureFailed, ev["cause"])
	assert.Equal(t, assert.AnError.Error(), ev["error"])
}
