package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"vaultrunner/internal/examples"
	"vaultrunner/internal/history"
	"vaultrunner/internal/testutil"
)

// outcomeJSON mirrors interpreter.Outcome on the wire.
type outcomeJSON struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Steps  int    `json:"steps"`
	AtExit bool   `json:"at_exit"`
}

type runResponseJSON struct {
	Map     string            `json:"map"`
	Outcome outcomeJSON       `json:"outcome"`
	World   string            `json:"world"`
	Trace   []json.RawMessage `json:"trace"`
	RunID   string            `json:"run_id"`
}

type eventJSON struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	srv := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postRun(t *testing.T, url string, req RunRequest) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/run", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func corridorSource(t *testing.T) string {
	t.Helper()
	e, ok := examples.Get("corridor")
	require.True(t, ok)
	return e.Source
}

func TestListEndpoints(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/examples")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var list []struct {
		Name string `json:"name"`
		Map  string `json:"map"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, len(examples.All()))

	resp2, err := http.Get(srv.URL + "/api/maps")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()

	var mapsList []MapInfo
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&mapsList))
	require.Len(t, mapsList, 4)
	assert.Equal(t, "corridor", mapsList[0].Name)
	assert.Equal(t, 7, mapsList[0].Width)
	assert.Equal(t, 3, mapsList[0].Height)
}

func TestRun_Completes(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, body := postRun(t, srv.URL, RunRequest{Source: corridorSource(t), Map: "corridor", Trace: true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got runResponseJSON
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "corridor", got.Map)
	assert.Equal(t, outcomeJSON{Status: "completed", Reason: "ended", Steps: 5, AtExit: true}, got.Outcome)
	assert.Len(t, got.Trace, 5)
	assert.Contains(t, got.World, ">")
	assert.Empty(t, got.RunID, "no history configured")
}

func TestRun_DefaultMapAndStepCap(t *testing.T) {
	srv := newTestServer(t, Config{MaxSteps: 3})

	resp, body := postRun(t, srv.URL, RunRequest{Source: "LOOP 10: MOVE ENDLOOP", MaxSteps: 500})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got runResponseJSON
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "corridor", got.Map)
	assert.Equal(t, "aborted", got.Outcome.Status)
	assert.Equal(t, 3, got.Outcome.Steps)
	assert.Nil(t, got.Trace)
}

func TestRun_CompileError(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, body := postRun(t, srv.URL, RunRequest{Source: "MOVE\nLOOP 51: MOVE ENDLOOP"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "loop-limit-exceeded", got.Kind)
	require.NotNil(t, got.Position)
	assert.Equal(t, 2, got.Position.Line)
	assert.Equal(t, 6, got.Position.Column)
}

func TestRun_BadRequests(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/api/run", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, body := postRun(t, srv.URL, RunRequest{Source: "MOVE", Map: "atlantis"})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Contains(t, string(body), "unknown map")
}

func TestRun_RecordsHistory(t *testing.T) {
	store, err := history.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := newTestServer(t, Config{History: store})
	resp, body := postRun(t, srv.URL, RunRequest{Source: corridorSource(t)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got runResponseJSON
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotEmpty(t, got.RunID)

	e, err := store.Get(context.Background(), got.RunID)
	require.NoError(t, err)
	assert.Equal(t, "api", e.Program)
	assert.Equal(t, 5, e.Steps)
}

func dialStream(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http")+"/api/run/stream", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// Stream handlers outlive the test once the connection is hijacked, so they
// must not log through t.
func quietConfig() Config {
	return Config{Logger: slog.New(slog.DiscardHandler)}
}

func TestStream_StepsThenOutcome(t *testing.T) {
	srv := newTestServer(t, quietConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialStream(t, ctx, srv.URL)
	require.NoError(t, wsjson.Write(ctx, conn, RunRequest{Source: corridorSource(t), Map: "corridor"}))

	var steps int
	for {
		var ev eventJSON
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		if ev.Type == "step" {
			steps++
			continue
		}
		require.Equal(t, "outcome", ev.Type)
		var got runResponseJSON
		require.NoError(t, json.Unmarshal(ev.Payload, &got))
		assert.Equal(t, "ended", got.Outcome.Reason)
		assert.Equal(t, 5, got.Outcome.Steps)
		break
	}
	assert.Equal(t, 5, steps)
}

func TestStream_CompileError(t *testing.T) {
	srv := newTestServer(t, quietConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialStream(t, ctx, srv.URL)
	require.NoError(t, wsjson.Write(ctx, conn, RunRequest{Source: "JUMP"}))

	var ev eventJSON
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "error", ev.Type)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(ev.Payload, &body))
	assert.Equal(t, "invalid-token", body.Kind)
}

func TestServeListener_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer(Config{Logger: testutil.NewTestLogger(t)}).ServeListener(ctx, ln)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/maps")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
