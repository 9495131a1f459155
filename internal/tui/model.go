// Package tui animates a run in the terminal, one action per tick.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
	"vaultrunner/internal/render"
)

// Options configures an animation.
type Options struct {
	Title      string
	Program    *interpreter.Program
	Map        *maps.Map
	MaxSteps   int
	HaltOnExit bool
	Delay      time.Duration
	// Paused starts the animation without ticking.
	Paused   bool
	Renderer *render.Renderer
	Logger   *slog.Logger
}

// tickMsg advances the machine. gen discards ticks scheduled before a
// pause or restart.
type tickMsg struct{ gen int }

// Model is the bubbletea model driving a Machine.
type Model struct {
	opts    Options
	keys    keyMap
	help    help.Model
	machine *interpreter.Machine
	last    *interpreter.Step
	paused  bool
	gen     int
}

// New builds a model ready to run.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Delay <= 0 {
		opts.Delay = 150 * time.Millisecond
	}
	m := Model{
		opts:   opts,
		keys:   defaultKeys(),
		help:   help.New(),
		paused: opts.Paused,
	}
	m.reset()
	return m
}

func (m *Model) reset() {
	w, b := m.opts.Map.Instantiate()
	m.machine = interpreter.NewMachine(m.opts.Program, w, b, m.opts.MaxSteps,
		interpreter.WithHaltOnExit(m.opts.HaltOnExit),
		interpreter.WithLogger(m.opts.Logger))
	m.last = nil
	m.gen++
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.opts.Delay, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) Init() tea.Cmd {
	if m.paused {
		return nil
	}
	return m.tick()
}

// advance runs one action.
func (m *Model) advance() {
	if res := m.machine.Step(); res.Step != nil {
		m.last = res.Step
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if msg.gen != m.gen || m.paused || m.machine.Done() {
			return m, nil
		}
		m.advance()
		if m.machine.Done() {
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			m.gen++
			if !m.paused && !m.machine.Done() {
				return m, m.tick()
			}
			return m, nil
		case key.Matches(msg, m.keys.Step):
			m.paused = true
			m.gen++
			if !m.machine.Done() {
				m.advance()
			}
			return m, nil
		case key.Matches(msg, m.keys.Restart):
			m.reset()
			if !m.paused {
				return m, m.tick()
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}
	return m, nil
}

func (m Model) View() string {
	r := m.opts.Renderer
	var sb strings.Builder

	title := m.opts.Title
	if title == "" {
		title = m.opts.Map.Name
	}
	sb.WriteString(r.Styles().Header.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(r.World(m.machine.World(), m.machine.Bot()))
	sb.WriteString("\n")
	sb.WriteString(r.BotStatus(m.machine.Bot()))
	sb.WriteString("\n")

	last := "-"
	if m.last != nil {
		last = m.last.Action.String()
		if !m.last.Changed {
			last += r.Muted(" (no-op)")
		}
	}
	fmt.Fprintf(&sb, "step %d/%d  last: %s\n", m.machine.Steps(), m.machine.MaxSteps(), last)

	switch {
	case m.machine.Done():
		sb.WriteString(r.Outcome(m.machine.Outcome()))
		sb.WriteString("\n")
	case m.paused:
		sb.WriteString(r.Muted("paused"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	sb.WriteString("\n")
	return sb.String()
}

// Done reports whether the run has finished.
func (m Model) Done() bool { return m.machine.Done() }

// Outcome is the machine's outcome; only meaningful once Done.
func (m Model) Outcome() interpreter.Outcome { return m.machine.Outcome() }

// Run shows the animation until the user quits or ctx is cancelled. It
// returns the outcome reached so far and whether the run finished.
func Run(ctx context.Context, opts Options, in io.Reader, out io.Writer) (interpreter.Outcome, bool, error) {
	p := tea.NewProgram(New(opts),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return interpreter.Outcome{}, false, fmt.Errorf("animation failed: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return interpreter.Outcome{}, false, fmt.Errorf("unexpected model %T", final)
	}
	return fm.Outcome(), fm.Done(), nil
}
