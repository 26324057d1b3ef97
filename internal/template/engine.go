package template

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/frherrer/treesync/internal/domain"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Each language template defines these blocks.
var requiredBlocks = []string{"file", "helper", "test"}

// Options carries the emission settings that are not part of the HIR.
type Options struct {
	WithVMSkip      bool
	SolidityVersion string
}

// Emitter renders HIR into target-language source.
type Emitter interface {
	Render(hir *domain.HIR, lang string, opts Options) (string, error)
	RenderHelper(hir *domain.HIR, lang, id string, opts Options) (string, error)
	RenderTest(hir *domain.HIR, lang, id string, opts Options) (string, error)
	ListTemplates() []string
}

type fileData struct {
	Title           string
	Context         domain.ContextRecord
	Helpers         []helperData
	Tests           []testData
	SolidityVersion string
}

type helperData struct {
	ID      string
	Title   string
	Context string
}

type testData struct {
	ID            string
	ExpectFailure bool
	Calls         []string
	Comments      []domain.Annotation
	VMSkip        bool
	Context       string
}

// DefaultEngine implements Emitter with one text/template set per language.
type DefaultEngine struct {
	templates   map[string]*template.Template
	templateDir string
}

// NewEngine loads the embedded language templates. When templateDir is set,
// every <lang>.tmpl file found there replaces the embedded one.
func NewEngine(templateDir string) (*DefaultEngine, error) {
	engine := &DefaultEngine{
		templates:   make(map[string]*template.Template),
		templateDir: templateDir,
	}

	if err := engine.loadTemplates(embedded, "templates", "embedded"); err != nil {
		return nil, err
	}
	if templateDir != "" {
		if _, err := os.Stat(templateDir); err != nil {
			return nil, domain.NewError("template", templateDir, 0, "failed to read template directory", err)
		}
		if err := engine.loadTemplates(os.DirFS(templateDir), ".", templateDir); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// loadTemplates reads all .tmpl files from dir in fsys.
func (e *DefaultEngine) loadTemplates(fsys fs.FS, dir, origin string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return domain.NewError("template", origin, 0, "failed to read template directory", err)
	}

	funcMap := sprig.TxtFuncMap()
	for name, fn := range CustomFuncMap() {
		funcMap[name] = fn
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}

		path := filepath.Join(origin, entry.Name())
		content, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return domain.NewError("template", path, 0, "failed to read template file", err)
		}

		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return domain.NewError("template", path, 0, "failed to parse template", err)
		}
		for _, block := range requiredBlocks {
			if tmpl.Lookup(block) == nil {
				return domain.NewErrorWithSuggestion("template", path, 0,
					fmt.Sprintf("template does not define %q", block),
					`define the "file", "helper" and "test" blocks`, nil)
			}
		}

		e.templates[name] = tmpl
	}

	if len(e.templates) == 0 {
		return domain.NewError("template", origin, 0, "no templates found", nil)
	}

	return nil
}

// Render emits a complete source file for hir.
func (e *DefaultEngine) Render(hir *domain.HIR, lang string, opts Options) (string, error) {
	tmpl, err := e.lookup(lang)
	if err != nil {
		return "", err
	}

	data := fileData{
		Title:           hir.Title,
		Context:         hir.Context,
		SolidityVersion: opts.SolidityVersion,
	}
	for _, h := range hir.Helpers {
		data.Helpers = append(data.Helpers, newHelperData(hir, h))
	}
	for _, t := range hir.Group.Tests {
		data.Tests = append(data.Tests, newTestData(hir, t, opts))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "file", data); err != nil {
		return "", domain.NewError("template", "", 0, fmt.Sprintf("failed to execute %s template", lang), err)
	}
	return tidy(buf.String()), nil
}

// RenderHelper emits the declaration of one helper, for insertion into an
// existing file.
func (e *DefaultEngine) RenderHelper(hir *domain.HIR, lang, id string, opts Options) (string, error) {
	helper, ok := hir.FindHelper(id)
	if !ok {
		return "", domain.NewError("template", "", 0, fmt.Sprintf("unknown helper %q", id), nil)
	}
	return e.fragment(lang, "helper", newHelperData(hir, helper))
}

// RenderTest emits the declaration of one test, for insertion into an
// existing file.
func (e *DefaultEngine) RenderTest(hir *domain.HIR, lang, id string, opts Options) (string, error) {
	test, ok := hir.FindTest(id)
	if !ok {
		return "", domain.NewError("template", "", 0, fmt.Sprintf("unknown test %q", id), nil)
	}
	return e.fragment(lang, "test", newTestData(hir, test, opts))
}

func (e *DefaultEngine) fragment(lang, block string, data any) (string, error) {
	tmpl, err := e.lookup(lang)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		return "", domain.NewError("template", "", 0, fmt.Sprintf("failed to execute %s %s block", lang, block), err)
	}
	return strings.TrimRight(tidy(buf.String()), "\n"), nil
}

func (e *DefaultEngine) lookup(lang string) (*template.Template, error) {
	tmpl, ok := e.templates[lang]
	if !ok {
		return nil, domain.NewError("template", "", 0,
			fmt.Sprintf("template %q not found (available: %s)", lang, strings.Join(e.ListTemplates(), ", ")), nil)
	}
	return tmpl, nil
}

// ListTemplates returns the names of all loaded templates, sorted.
func (e *DefaultEngine) ListTemplates() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newHelperData(hir *domain.HIR, h domain.HelperUnit) helperData {
	return helperData{ID: h.ID, Title: h.SourceTitle, Context: hir.Context.Name}
}

// newTestData resolves the helpers a test calls: every helper on its path
// that the HIR actually declares.
func newTestData(hir *domain.HIR, t domain.TestUnit, opts Options) testData {
	data := testData{
		ID:            t.ID,
		ExpectFailure: t.ExpectFailure,
		Comments:      t.Annotations,
		VMSkip:        opts.WithVMSkip,
		Context:       hir.Context.Name,
	}
	for _, id := range t.HelperPath {
		if _, ok := hir.FindHelper(id); ok {
			data.Calls = append(data.Calls, id)
		}
	}
	return data
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// tidy strips trailing blanks, collapses runs of blank lines and ends the
// text with exactly one newline.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimLeft(strings.TrimRight(s, "\n"), "\n") + "\n"
}
