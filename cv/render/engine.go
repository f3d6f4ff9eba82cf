package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"cv-backend/cv/bind"
	"cv-backend/internal/shared/telemetry"
)

const (
	defaultCompiler = "pdflatex"
	defaultTimeout  = 45 * time.Second
	defaultPasses   = 3
	mainTexName     = "main.tex"
	mainPDFName     = "main.pdf"
)

var (
	// ErrTimeout indicates the render exceeded its wall-clock budget.
	// Not retried: the same inputs would time out again.
	ErrTimeout = errors.New("render timed out")

	// ErrCompileFailed indicates the compiler rejected the bound document
	// after all passes.
	ErrCompileFailed = errors.New("compile failed")
)

// CompileError carries the compiler's diagnostic output.
type CompileError struct {
	Diagnostic string
}

func (e *CompileError) Error() string {
	if e.Diagnostic == "" {
		return "render: compile failed"
	}
	return "render: compile failed: " + e.Diagnostic
}

func (e *CompileError) Unwrap() error { return ErrCompileFailed }

// Result holds the outputs of a successful render. Preview is best-effort
// and may be empty; PDF is the primary success criterion.
type Result struct {
	PDF     []byte
	Preview []byte
	Pages   int
}

// Engine compiles bound documents by shelling out to a LaTeX toolchain.
// The compiler is treated as an untrusted, potentially slow subprocess:
// each invocation gets its own disposable working directory and a hard
// wall-clock timeout.
type Engine struct {
	compiler string
	timeout  time.Duration
	passes   int
	baseDir  string
}

// NewEngine constructs an Engine. Zero values fall back to pdflatex,
// a 45s timeout, and 3 compile passes.
func NewEngine(compiler string, timeout time.Duration, passes int) *Engine {
	if strings.TrimSpace(compiler) == "" {
		compiler = defaultCompiler
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if passes <= 0 {
		passes = defaultPasses
	}
	return &Engine{compiler: compiler, timeout: timeout, passes: passes}
}

// Seams for tests, following the openDB pattern in storage/db.
var (
	runCompiler      = runCompilerExec
	countPages       = countPDFPages
	rasterizePreview = rasterizeFirstPage
)

// Render compiles the bound document into PDF bytes plus a first-page PNG
// preview. The scoped working directory is removed on every exit path.
func (e *Engine) Render(ctx context.Context, doc bind.BoundDocument) (Result, error) {
	dir, err := os.MkdirTemp(e.baseDir, "cvrender-")
	if err != nil {
		return Result{}, fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(dir)

	texPath := filepath.Join(dir, mainTexName)
	if err := os.WriteFile(texPath, []byte(doc.Source), 0o644); err != nil {
		return Result{}, fmt.Errorf("write document source: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var out []byte
	var runErr error
	for pass := 0; pass < e.passes; pass++ {
		out, runErr = runCompiler(ctx, e.compiler, dir, mainTexName)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The deadline is the render budget; anything else is the
			// caller abandoning the request.
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return Result{}, ErrTimeout
			}
			return Result{}, ctxErr
		}
		if runErr != nil {
			// Retry within the pass bound; a pass that failed because a
			// cross-reference file did not exist yet succeeds on rerun.
			continue
		}
		if !needsRerun(out) {
			break
		}
	}
	if runErr != nil {
		return Result{}, &CompileError{Diagnostic: diagnosticTail(out)}
	}

	pdfBytes, err := os.ReadFile(filepath.Join(dir, mainPDFName))
	if err != nil {
		return Result{}, &CompileError{Diagnostic: "compiler exited cleanly but produced no pdf"}
	}

	pages, err := countPages(pdfBytes)
	if err != nil || pages < 1 {
		return Result{}, &CompileError{Diagnostic: "produced pdf is unreadable"}
	}

	preview, err := rasterizePreview(pdfBytes)
	if err != nil {
		telemetry.Error("render.preview_failed", map[string]any{
			"template_id": doc.TemplateID,
			"error":       err.Error(),
		})
		preview = nil
	}

	return Result{PDF: pdfBytes, Preview: preview, Pages: pages}, nil
}

func runCompilerExec(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, compiler,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", dir,
		texFile,
	)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func needsRerun(out []byte) bool {
	return strings.Contains(string(out), "Rerun to get")
}

// diagnosticTail extracts the compiler error lines, falling back to the last
// chunk of output when none are marked.
func diagnosticTail(out []byte) string {
	lines := strings.Split(string(out), "\n")
	var marked []string
	for _, line := range lines {
		if strings.HasPrefix(line, "!") {
			marked = append(marked, strings.TrimSpace(line))
		}
	}
	if len(marked) > 0 {
		return strings.Join(marked, "; ")
	}
	const tail = 512
	s := string(out)
	if len(s) > tail {
		s = s[len(s)-tail:]
	}
	return strings.TrimSpace(s)
}
