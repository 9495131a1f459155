package interpreter

import (
	"fmt"
	"log/slog"

	"vaultrunner/internal/world"
)

// DefaultMaxSteps is used when Run is given a non-positive limit. The limit
// is checked before each action, so a program with exactly maxSteps actions
// completes and only a further action aborts the run.
const DefaultMaxSteps = 1000

type Status int

const (
	Completed Status = iota
	Aborted
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Reason says why a run stopped.
type Reason string

const (
	ReasonEnded             Reason = "ended"
	ReasonExited            Reason = "exited"
	ReasonFinished          Reason = "finished"
	ReasonStepLimitExceeded Reason = "step-limit-exceeded"
	ReasonInvalidState      Reason = "invalid-state"
)

// Outcome is the result of a run.
type Outcome struct {
	Status Status `json:"status"`
	Reason Reason `json:"reason"`
	Steps  int    `json:"steps"`
	AtExit bool   `json:"at_exit"`
	Cause  string `json:"cause,omitempty"`
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%s (%s) after %d steps", o.Status, o.Reason, o.Steps)
	if o.AtExit {
		s += ", at exit"
	}
	if o.Cause != "" {
		s += ": " + o.Cause
	}
	return s
}

// Step records one executed action and the bot state right after it.
type Step struct {
	Index    int             `json:"index"`
	Action   Kind            `json:"action"`
	Position world.Position  `json:"position"`
	Facing   world.Direction `json:"facing"`
	HasKey   bool            `json:"has_key"`
	Changed  bool            `json:"changed"`
}

// StepResult is what Machine.Step produced. Step is nil when no action ran;
// Outcome is set once the run is over.
type StepResult struct {
	Step    *Step
	Outcome *Outcome
}

type options struct {
	trace      func(Step)
	haltOnExit bool
	logger     *slog.Logger
}

type Option func(*options)

// WithTrace registers a callback invoked after every action.
func WithTrace(fn func(Step)) Option {
	return func(o *options) { o.trace = fn }
}

// WithHaltOnExit stops the run as soon as the bot stands on an exit.
func WithHaltOnExit(halt bool) Option {
	return func(o *options) { o.haltOnExit = halt }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Machine executes a program one action at a time.
type Machine struct {
	ctx      Context
	opts     options
	maxSteps int
	steps    int
	done     bool
	outcome  Outcome
}

// NewMachine prepares p to run against w and b. Both are mutated by the run.
// An invalid starting state produces a machine that is already done.
func NewMachine(p *Program, w *world.World, b *world.Bot, maxSteps int, opts ...Option) *Machine {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	m := &Machine{
		ctx:      Context{World: w, Bot: b},
		opts:     o,
		maxSteps: maxSteps,
	}

	switch {
	case p == nil:
		m.finish(Failed, ReasonInvalidState, "no program")
	case w == nil || b == nil:
		m.finish(Failed, ReasonInvalidState, "no world or bot")
	case !w.InBounds(b.Pos):
		m.finish(Failed, ReasonInvalidState, fmt.Sprintf("bot at %s is outside the world", b.Pos))
	case w.IsWall(b.Pos):
		m.finish(Failed, ReasonInvalidState, fmt.Sprintf("bot at %s is inside a wall", b.Pos))
	case o.haltOnExit && b.AtExit(w):
		m.finish(Completed, ReasonExited, "")
	default:
		m.ctx.push(p.Statements)
	}
	return m
}

func (m *Machine) World() *world.World { return m.ctx.World }
func (m *Machine) Bot() *world.Bot     { return m.ctx.Bot }
func (m *Machine) Steps() int          { return m.steps }
func (m *Machine) MaxSteps() int       { return m.maxSteps }
func (m *Machine) Done() bool          { return m.done }

// Depth is the number of statement lists in progress.
func (m *Machine) Depth() int { return m.ctx.Depth() }

// Outcome returns the final outcome. It is only meaningful once Done.
func (m *Machine) Outcome() Outcome { return m.outcome }

// Step runs control flow up to and including the next action. Conditions
// and loop bookkeeping are free; only the action counts as a step.
func (m *Machine) Step() StepResult {
	if m.done {
		return StepResult{Outcome: &m.outcome}
	}

	for {
		stmt := m.ctx.nextStatement()
		if stmt == nil {
			m.finish(Completed, ReasonFinished, "")
			return StepResult{Outcome: &m.outcome}
		}

		switch s := stmt.(type) {
		case *If:
			switch {
			case m.ctx.Eval(s.Cond):
				m.ctx.push(s.Then)
			case s.HasElse:
				m.ctx.push(s.Else)
			}
		case *Loop:
			m.ctx.pushLoop(s)
		case *Action:
			return m.act(s)
		}
	}
}

func (m *Machine) act(a *Action) StepResult {
	if m.steps >= m.maxSteps {
		m.finish(Aborted, ReasonStepLimitExceeded, fmt.Sprintf("limit of %d steps reached", m.maxSteps))
		return StepResult{Outcome: &m.outcome}
	}
	m.steps++

	changed := m.ctx.apply(a.Kind)
	b := m.ctx.Bot
	step := Step{
		Index:    m.steps,
		Action:   a.Kind,
		Position: b.Pos,
		Facing:   b.Facing,
		HasKey:   b.HasKey,
		Changed:  changed,
	}
	m.opts.logger.Debug("step",
		"index", step.Index,
		"action", a.Kind.String(),
		"pos", b.Pos.String(),
		"facing", b.Facing.String(),
		"changed", changed)
	if m.opts.trace != nil {
		m.opts.trace(step)
	}

	res := StepResult{Step: &step}
	switch {
	case a.Kind == END:
		m.ctx.unwind()
		m.finish(Completed, ReasonEnded, "")
		res.Outcome = &m.outcome
	case m.opts.haltOnExit && b.AtExit(m.ctx.World):
		m.finish(Completed, ReasonExited, "")
		res.Outcome = &m.outcome
	}
	return res
}

func (m *Machine) finish(status Status, reason Reason, cause string) {
	m.done = true
	m.outcome = Outcome{Status: status, Reason: reason, Steps: m.steps, Cause: cause}
	if m.ctx.World != nil && m.ctx.Bot != nil {
		m.outcome.AtExit = m.ctx.Bot.AtExit(m.ctx.World)
	}
	m.opts.logger.Debug("run finished",
		"status", status.String(),
		"reason", string(reason),
		"steps", m.steps)
}

// Run executes p to completion and returns the outcome. A run aborts with
// step-limit-exceeded when it tries an action after maxSteps have been taken;
// reaching the limit on the last action still completes as finished.
func Run(p *Program, w *world.World, b *world.Bot, maxSteps int, opts ...Option) Outcome {
	m := NewMachine(p, w, b, maxSteps, opts...)
	for !m.Done() {
		m.Step()
	}
	return m.Outcome()
}
