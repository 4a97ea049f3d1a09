// Package prompts loads the plain-text prompt templates used by the pipeline.
package prompts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/valyala/fasttemplate"
)

const (
	PrincipleExtractor = "rag_principle_extractor.txt"
	RoutineAssembler   = "routine_assembler.txt"
)

var ErrNotFound = errors.New("prompt template not found")

// identRx matches the tags treated as placeholders. Any other {...} run, such
// as a JSON literal, is written back untouched.
var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Loader struct {
	Dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Template is a prompt with {name} placeholders.
type Template struct {
	Name string
	Path string
	Text string

	tpl *fasttemplate.Template
}

// Load reads and parses name from the loader's directory. The file is read on
// every call so edits apply without a restart.
func (l *Loader) Load(name string) (Template, error) {
	p := filepath.Join(l.Dir, name)
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return Template{}, fmt.Errorf("read prompt %s: %w", p, err)
	}
	tpl, err := fasttemplate.NewTemplate(string(b), "{", "}")
	if err != nil {
		return Template{}, fmt.Errorf("parse prompt %s: %w", p, err)
	}
	return Template{Name: name, Path: p, Text: string(b), tpl: tpl}, nil
}

// Render substitutes {name} placeholders; unknown ones stay verbatim.
func (t Template) Render(vars map[string]string) string {
	if t.tpl == nil {
		return t.Text
	}
	return t.tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := vars[tag]; ok && identRx.MatchString(tag) {
			return io.WriteString(w, v)
		}
		return io.WriteString(w, "{"+tag+"}")
	})
}

// Placeholders lists the distinct placeholder names in order of appearance.
func (t Template) Placeholders() []string {
	if t.tpl == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	t.tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if identRx.MatchString(tag) && !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
		return 0, nil
	})
	return out
}
