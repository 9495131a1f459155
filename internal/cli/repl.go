package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"vaultrunner/internal/interpreter"
	"vaultrunner/internal/maps"
	"vaultrunner/internal/render"
)

const (
	replPrompt     = "vault> "
	replContPrompt = "  ...> "
)

// replSession holds the program being typed and the map it runs on. Input
// lines accumulate until .run; dot-commands act on the buffer.
type replSession struct {
	ctx      context.Context
	r        *render.Renderer
	logger   *slog.Logger
	maxSteps int
	halt     bool
	m        *maps.Map
	lines    []string
}

func newREPLSession(ctx context.Context, m *maps.Map) *replSession {
	cfg := GetConfig(ctx)
	return &replSession{
		ctx:      ctx,
		r:        GetRenderer(ctx),
		logger:   GetLogger(ctx),
		maxSteps: cfg.MaxSteps,
		halt:     cfg.HaltOnExit,
		m:        m,
	}
}

func (s *replSession) prompt() string {
	if len(s.lines) > 0 {
		return replContPrompt
	}
	return replPrompt
}

func (s *replSession) source() string {
	if len(s.lines) == 0 {
		return ""
	}
	return strings.Join(s.lines, "\n") + "\n"
}

// handle processes one input line and reports whether the session should end.
func (s *replSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ".") {
		s.lines = append(s.lines, line)
		return false
	}

	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		s.printHelp()
	case ".run":
		s.run()
	case ".check":
		if _, ok := s.compile(); ok {
			s.r.Success("ok")
		}
	case ".show":
		s.show()
	case ".reset":
		s.lines = nil
		s.r.Println(s.r.Muted("buffer cleared"))
	case ".map":
		s.switchMap(parts[1:])
	default:
		s.r.Error(fmt.Sprintf("unknown command %s (type .help for commands)", parts[0]))
	}
	return false
}

func (s *replSession) compile() (*interpreter.Program, bool) {
	src := s.source()
	prog, err := interpreter.Compile(src)
	if err != nil {
		_, _ = fmt.Fprintln(s.r.ErrWriter(), s.r.CompileError(src, err))
		return nil, false
	}
	return prog, true
}

func (s *replSession) run() {
	prog, ok := s.compile()
	if !ok {
		return
	}
	w, b := s.m.Instantiate()
	out := interpreter.Run(prog, w, b, s.maxSteps,
		interpreter.WithHaltOnExit(s.halt),
		interpreter.WithLogger(s.logger))
	s.r.Printf("%s", s.r.World(w, b))
	s.r.Println(s.r.Outcome(out))
	recordRun(s.ctx, programSource{Name: "repl", Source: s.source()}, s.m.Name, out)
}

func (s *replSession) show() {
	if len(s.lines) == 0 {
		s.r.Println(s.r.Muted("(empty buffer)"))
		return
	}
	if prog, err := interpreter.Compile(s.source()); err == nil {
		s.r.Printf("%s", prog.String())
		return
	}
	s.r.Printf("%s", s.source())
}

func (s *replSession) switchMap(args []string) {
	if len(args) == 0 {
		w, b := s.m.Instantiate()
		s.r.Header(s.m.Name)
		s.r.Printf("%s", s.r.World(w, b))
		return
	}
	m, err := maps.Resolve(args[0])
	if err != nil {
		s.r.Error(err.Error())
		return
	}
	s.m = m
	s.r.Success("map: " + m.Name)
}

func (s *replSession) printHelp() {
	s.r.Println(`Type program lines; they are kept in a buffer until you run them.

Commands:
  .run            Compile the buffer and run it on a fresh map
  .check          Compile the buffer without running it
  .show           Print the buffer (formatted when it compiles)
  .reset          Clear the buffer
  .map [name]     Show the current map, or switch to a built-in map or file
  .help           Show this help message
  .quit / .exit   Exit the REPL`)
}

// wordCompleter completes the word under the cursor with keywords and
// dot-commands.
type wordCompleter struct {
	words []string
}

func newWordCompleter() *wordCompleter {
	words := append([]string{}, interpreter.Keywords()...)
	words = append(words, ".run", ".check", ".show", ".reset", ".map", ".help", ".quit")
	return &wordCompleter{words: words}
}

// Do implements readline.AutoCompleter.
func (c *wordCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && line[start-1] != ' ' && line[start-1] != '\t' {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}
	var out [][]rune
	for _, w := range c.words {
		if strings.HasPrefix(w, prefix) {
			out = append(out, []rune(w[len(prefix):]+" "))
		}
	}
	return out, len(prefix)
}

func newREPLCommand() *cobra.Command {
	var mapRef string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Type and run programs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := GetConfig(ctx)
			r := GetRenderer(ctx)

			m, err := maps.Resolve(mapRef)
			if err != nil {
				return err
			}
			session := newREPLSession(ctx, m)

			rlCfg := &readline.Config{
				Prompt:          replPrompt,
				AutoComplete:    newWordCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
			}
			if cfg.History {
				rlCfg.HistoryFile = filepath.Join(filepath.Dir(cfg.HistoryPath), "repl_history")
			}
			rl, err := readline.NewEx(rlCfg)
			if err != nil {
				return fmt.Errorf("failed to initialize REPL: %w", err)
			}
			defer func() { _ = rl.Close() }()

			r.Printf("Vault Runner REPL (map: %s)\n", m.Name)
			r.Println("Type .help for commands, .quit to exit")

			for {
				rl.SetPrompt(session.prompt())
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					session.lines = nil
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if session.handle(line) {
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVarP(&mapRef, "map", "m", defaultMapName, "Map to run on")
	_ = cmd.RegisterFlagCompletionFunc("map", mapNames)
	return cmd
}
