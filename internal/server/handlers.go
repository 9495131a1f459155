package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"vaultrunner/internal/examples"
	"vaultrunner/internal/history"
	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
)

const (
	maxRequestBytes = 64 << 10
	maxStreamDelay  = time.Second
	defaultMap      = "corridor"
)

// RunRequest is the body of POST /api/run and the first websocket message.
type RunRequest struct {
	Source     string `json:"source"`
	Map        string `json:"map"`
	MaxSteps   int    `json:"max_steps"`
	HaltOnExit bool   `json:"halt_on_exit"`
	Trace      bool   `json:"trace"`
	// DelayMS paces streamed steps; ignored by POST /api/run.
	DelayMS int `json:"delay_ms"`
}

// RunResponse is returned for a completed run.
type RunResponse struct {
	Map     string              `json:"map"`
	Outcome interpreter.Outcome `json:"outcome"`
	World   string              `json:"world"`
	Trace   []interpreter.Step  `json:"trace,omitempty"`
	RunID   string              `json:"run_id,omitempty"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error    string                `json:"error"`
	Kind     string                `json:"kind,omitempty"`
	Position *interpreter.Position `json:"position,omitempty"`
}

// Event is one websocket message: "step", "outcome" or "error".
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type MapInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Grid        string `json:"grid"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) handleExamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, examples.All())
}

func (s *Server) handleMaps(w http.ResponseWriter, _ *http.Request) {
	var out []MapInfo
	for _, name := range maps.Names() {
		m, err := maps.Builtin(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, MapInfo{
			Name:        m.Name,
			Description: m.Description,
			Width:       m.Width(),
			Height:      m.Height(),
			Grid:        m.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// prepared is a validated request, ready to run.
type prepared struct {
	req  RunRequest
	prog *interpreter.Program
	m    *maps.Map
}

// requestError carries the HTTP status for a rejected request.
type requestError struct {
	status int
	body   ErrorResponse
}

func (s *Server) prepare(req RunRequest) (*prepared, *requestError) {
	prog, err := interpreter.Compile(req.Source)
	if err != nil {
		body := ErrorResponse{Error: err.Error(), Kind: interpreter.ErrorKind(err)}
		if pos, ok := interpreter.ErrorPosition(err); ok {
			body.Position = &pos
		}
		return nil, &requestError{status: http.StatusUnprocessableEntity, body: body}
	}

	if req.Map == "" {
		req.Map = defaultMap
	}
	// Only embedded maps; the API never reads the server's filesystem.
	m, err := maps.Builtin(req.Map)
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, body: ErrorResponse{Error: err.Error()}}
	}

	if req.MaxSteps <= 0 || req.MaxSteps > s.maxSteps {
		req.MaxSteps = s.maxSteps
	}
	return &prepared{req: req, prog: prog, m: m}, nil
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	p, rerr := s.prepare(req)
	if rerr != nil {
		writeJSON(w, rerr.status, rerr.body)
		return
	}

	wld, bot := p.m.Instantiate()
	resp := RunResponse{Map: p.m.Name}
	opts := []interpreter.Option{
		interpreter.WithHaltOnExit(p.req.HaltOnExit),
		interpreter.WithLogger(s.logger),
	}
	if p.req.Trace {
		opts = append(opts, interpreter.WithTrace(func(st interpreter.Step) {
			resp.Trace = append(resp.Trace, st)
		}))
	}
	resp.Outcome = interpreter.Run(p.prog, wld, bot, p.req.MaxSteps, opts...)
	resp.World = s.plain.World(wld, bot)
	resp.RunID = s.record(r.Context(), p, resp.Outcome)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) record(ctx context.Context, p *prepared, out interpreter.Outcome) string {
	if s.history == nil {
		return ""
	}
	e, err := s.history.Record(ctx, history.NewEntry("api", p.m.Name, p.req.Source, out))
	if err != nil {
		s.logger.Warn("failed to record run", "error", err)
		return ""
	}
	return e.ID
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ctx := r.Context()
	if err := s.stream(ctx, conn); err != nil {
		s.logger.Debug("stream ended", "error", err)
		_ = conn.Close(websocket.StatusInternalError, "stream failed")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) stream(ctx context.Context, conn *websocket.Conn) error {
	var req RunRequest
	readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := wsjson.Read(readCtx, conn, &req)
	cancel()
	if err != nil {
		return fmt.Errorf("reading run request: %w", err)
	}

	p, rerr := s.prepare(req)
	if rerr != nil {
		return wsjson.Write(ctx, conn, Event{Type: "error", Payload: rerr.body})
	}

	delay := time.Duration(p.req.DelayMS) * time.Millisecond
	delay = min(max(delay, 0), maxStreamDelay)

	wld, bot := p.m.Instantiate()
	m := interpreter.NewMachine(p.prog, wld, bot, p.req.MaxSteps,
		interpreter.WithHaltOnExit(p.req.HaltOnExit),
		interpreter.WithLogger(s.logger))

	for !m.Done() {
		res := m.Step()
		if res.Step != nil {
			if err := wsjson.Write(ctx, conn, Event{Type: "step", Payload: res.Step}); err != nil {
				return err
			}
			if delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
		}
	}

	out := m.Outcome()
	payload := RunResponse{
		Map:     p.m.Name,
		Outcome: out,
		World:   s.plain.World(wld, bot),
		RunID:   s.record(ctx, p, out),
	}
	return wsjson.Write(ctx, conn, Event{Type: "outcome", Payload: payload})
}
