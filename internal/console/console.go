// Package console renders chat turns on a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/aaronromeo/swolecoach/internal/pipeline"
	"github.com/aaronromeo/swolecoach/internal/profile"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

// Theme holds the colour functions used by the presenter.
type Theme struct {
	Border  func(a ...interface{}) string
	Label   func(a ...interface{}) string
	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Dim     func(a ...interface{}) string
}

func DefaultTheme() *Theme {
	return &Theme{
		Border:  color.New(color.FgCyan).SprintFunc(),
		Label:   color.New(color.FgCyan, color.Bold).SprintFunc(),
		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Dim:     color.New(color.FgHiBlack).SprintFunc(),
	}
}

// NoColorTheme is used when output is not a terminal.
func NoColorTheme() *Theme {
	plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &Theme{Border: plain, Label: plain, Success: plain, Error: plain, Dim: plain}
}

// Presenter writes turn results. Verbose adds the step trace and debug data.
type Presenter struct {
	w       io.Writer
	theme   *Theme
	width   int
	verbose bool
}

// New writes to stdout, with colour only when stdout is a terminal.
func New(verbose bool) *Presenter {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return NewWithWriter(os.Stdout, NoColorTheme(), 60, verbose)
	}
	return NewWithWriter(os.Stdout, DefaultTheme(), terminalWidth(fd), verbose)
}

func NewWithWriter(w io.Writer, theme *Theme, width int, verbose bool) *Presenter {
	if width <= 0 {
		width = 60
	}
	return &Presenter{w: w, theme: theme, width: width, verbose: verbose}
}

func terminalWidth(fd int) int {
	width, _, err := term.GetSize(fd)
	if err != nil || width < 40 {
		return 60
	}
	return min(width, 100)
}

func (p *Presenter) rule() string {
	return p.theme.Border(strings.Repeat("=", p.width))
}

// Banner is printed once when the chat starts.
func (p *Presenter) Banner() {
	fmt.Fprintln(p.w, p.rule())
	fmt.Fprintln(p.w, p.theme.Label("🏋️  ENTRENADOR PERSONAL AI"))
	fmt.Fprintln(p.w, p.rule())
	fmt.Fprintln(p.w, p.theme.Dim("Comandos: 'login <usuario>' para cambiar de usuario, 'salir' para terminar"))
	if p.verbose {
		fmt.Fprintln(p.w, p.theme.Dim("🔍 Modo VERBOSE activado"))
	}
}

// UserContext summarises the active profile.
func (p *Presenter) UserContext(pr profile.Profile) {
	name := pr.Name
	if name == "" {
		name = pr.UserID
	}
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.rule())
	fmt.Fprintf(p.w, "👤 Usuario: %s\n", orNA(name))
	fmt.Fprintf(p.w, "🎯 Objetivo: %s\n", orNA(pr.Objective))
	fmt.Fprintf(p.w, "📊 Nivel: %s\n", orNA(pr.Level))
	fmt.Fprintln(p.w, p.rule())
}

// Prompt is the input prefix of the REPL.
func (p *Presenter) Prompt() {
	fmt.Fprint(p.w, "\n"+p.theme.Label("💬 Tú: "))
}

// Turn prints the outcome of one graph run; a saved routine is shown as YAML.
func (p *Presenter) Turn(st pipeline.State) {
	if p.verbose {
		fmt.Fprintln(p.w, p.theme.Dim(fmt.Sprintf("turn=%s type=%s step=%s", st.TurnID, st.RequestType, st.Step)))
		if st.Kind != pipeline.KindNone {
			fmt.Fprintln(p.w, p.theme.Dim(fmt.Sprintf("error[%s]: %s", st.Kind, st.Error)))
		}
		if g := st.Debug.Generation; g != nil {
			fmt.Fprintln(p.w, p.theme.Dim(fmt.Sprintf("model=%s attempts=%d latency=%dms passages=%d", g.Model, g.Attempts, g.LatencyMS, st.Debug.RetrievedPassages)))
		}
	}

	fmt.Fprintln(p.w)
	if st.Step == pipeline.StepError {
		fmt.Fprintln(p.w, p.theme.Error(st.Response))
		return
	}
	fmt.Fprintln(p.w, p.theme.Success(st.Response))
	if st.Step == pipeline.StepSaved && st.Routine != nil {
		p.Routine(*st.Routine)
	}
}

// Routine prints r as YAML between rules.
func (p *Presenter) Routine(r workout.Routine) {
	out, err := workout.RenderYAML(r)
	if err != nil {
		p.Error(err.Error())
		return
	}
	fmt.Fprintln(p.w, p.theme.Border(strings.Repeat("─", p.width)))
	fmt.Fprint(p.w, out)
	fmt.Fprintln(p.w, p.theme.Border(strings.Repeat("─", p.width)))
}

func (p *Presenter) Info(msg string) {
	fmt.Fprintln(p.w, p.theme.Label(msg))
}

func (p *Presenter) Warn(msg string) {
	fmt.Fprintln(p.w, "⚠️  "+msg)
}

func (p *Presenter) Error(msg string) {
	fmt.Fprintln(p.w, p.theme.Error("❌ Error: "+msg))
}

func (p *Presenter) Goodbye() {
	fmt.Fprintln(p.w, "\n👋 Entrenador: ¡Hasta luego! 💪")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
