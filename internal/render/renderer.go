// Package render turns worlds, traces and outcomes into terminal output.
//
// A Renderer owns an output and an error stream plus the lipgloss styles for
// them. Colour is decided once at construction: ColorAuto enables it only
// when the output is a terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// ColorMode selects whether styles emit ANSI sequences.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Styles used across commands.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style

	Wall     lipgloss.Style
	Floor    lipgloss.Style
	Key      lipgloss.Style
	Door     lipgloss.Style
	OpenDoor lipgloss.Style
	Exit     lipgloss.Style
	Bot      lipgloss.Style
}

func newStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),

		Wall:     lr.NewStyle().Foreground(lipgloss.Color("240")),
		Floor:    lr.NewStyle().Foreground(lipgloss.Color("236")),
		Key:      lr.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		Door:     lr.NewStyle().Bold(true).Foreground(lipgloss.Color("130")),
		OpenDoor: lr.NewStyle().Foreground(lipgloss.Color("172")),
		Exit:     lr.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		Bot:      lr.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
	}
}

// Renderer writes formatted output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	lr     *lipgloss.Renderer
	styles *Styles
}

// NewRenderer detects whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode, color ColorMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode, color)
}

// NewRendererWithTTY is NewRenderer with terminal detection overridden.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode, color ColorMode) *Renderer {
	if mode == "" || mode == ModeAuto {
		mode = ModeText
	}
	lr := lipgloss.NewRenderer(out)
	switch {
	case color == ColorNever, color != ColorAlways && !isTTY, mode == ModeJSON:
		lr.SetColorProfile(termenv.Ascii)
	case color == ColorAlways && !isTTY:
		lr.SetColorProfile(termenv.ANSI256)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		lr:     lr,
		styles: newStyles(lr),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *Renderer) Writer() io.Writer    { return r.out }
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }
func (r *Renderer) Mode() Mode           { return r.mode }
func (r *Renderer) IsJSON() bool         { return r.mode == ModeJSON }
func (r *Renderer) IsTTY() bool          { return r.isTTY }
func (r *Renderer) Styles() *Styles      { return r.styles }

func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header prints a bold heading line.
func (r *Renderer) Header(text string) {
	r.Println(r.styles.Header.Render(text))
}

func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+msg))
}

// Error prints to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("error: "+msg))
}

func (r *Renderer) Muted(s string) string {
	return r.styles.Muted.Render(s)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
