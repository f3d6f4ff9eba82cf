package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cv-backend/cv/bind"
)

func stubSeams(t *testing.T) {
	t.Helper()
	origRun, origCount, origRaster := runCompiler, countPages, rasterizePreview
	t.Cleanup(func() {
		runCompiler = origRun
		countPages = origCount
		rasterizePreview = origRaster
	})
}

func writePDF(t *testing.T, dir string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, mainPDFName), []byte(content), 0o644); err != nil {
		t.Fatalf("write stub pdf: %v", err)
	}
}

func testDoc() bind.BoundDocument {
	return bind.BoundDocument{TemplateID: "test_tpl", Source: `\documentclass{article}\begin{document}hi\end{document}`}
}

func TestRenderSuccess(t *testing.T) {
	stubSeams(t)

	var workDir string
	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		workDir = dir
		src, err := os.ReadFile(filepath.Join(dir, texFile))
		if err != nil {
			t.Fatalf("source not written before compile: %v", err)
		}
		if !strings.Contains(string(src), `\documentclass`) {
			t.Fatalf("unexpected source: %s", src)
		}
		writePDF(t, dir, "%PDF-1.5 stub")
		return []byte("Output written on main.pdf (1 page)."), nil
	}
	countPages = func(b []byte) (int, error) { return 1, nil }
	rasterizePreview = func(b []byte) ([]byte, error) { return []byte("png-preview"), nil }

	res, err := NewEngine("", 0, 0).Render(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(res.PDF) != "%PDF-1.5 stub" {
		t.Fatalf("pdf bytes = %q", res.PDF)
	}
	if string(res.Preview) != "png-preview" {
		t.Fatalf("preview bytes = %q", res.Preview)
	}
	if res.Pages != 1 {
		t.Fatalf("pages = %d", res.Pages)
	}
	if _, err := os.Stat(workDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("render dir %s not cleaned up", workDir)
	}
}

func TestRenderRerunsForCrossReferences(t *testing.T) {
	stubSeams(t)

	runs := 0
	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		runs++
		writePDF(t, dir, "%PDF-1.5 stub")
		if runs == 1 {
			return []byte("LaTeX Warning: Label(s) may have changed. Rerun to get cross-references right."), nil
		}
		return []byte("Output written on main.pdf (2 pages)."), nil
	}
	countPages = func(b []byte) (int, error) { return 2, nil }
	rasterizePreview = func(b []byte) ([]byte, error) { return nil, nil }

	res, err := NewEngine("pdflatex", time.Minute, 3).Render(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if runs != 2 {
		t.Fatalf("compiler ran %d times, want 2", runs)
	}
	if res.Pages != 2 {
		t.Fatalf("pages = %d", res.Pages)
	}
}

func TestRenderRetriesFailedPass(t *testing.T) {
	stubSeams(t)

	runs := 0
	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		runs++
		if runs == 1 {
			return []byte("! Emergency stop."), errors.New("exit status 1")
		}
		writePDF(t, dir, "%PDF-1.5 stub")
		return []byte("ok"), nil
	}
	countPages = func(b []byte) (int, error) { return 1, nil }
	rasterizePreview = func(b []byte) ([]byte, error) { return nil, nil }

	if _, err := NewEngine("pdflatex", time.Minute, 3).Render(context.Background(), testDoc()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if runs != 2 {
		t.Fatalf("compiler ran %d times, want 2", runs)
	}
}

func TestRenderCompileFailure(t *testing.T) {
	stubSeams(t)

	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		return []byte("chatter\n! Undefined control sequence.\nl.12 \\badmacro\nmore chatter"), errors.New("exit status 1")
	}

	_, err := NewEngine("pdflatex", time.Minute, 2).Render(context.Background(), testDoc())
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("err = %T, want *CompileError", err)
	}
	if !strings.Contains(compileErr.Diagnostic, "Undefined control sequence") {
		t.Fatalf("diagnostic = %q", compileErr.Diagnostic)
	}
}

func TestRenderTimeout(t *testing.T) {
	stubSeams(t)

	var workDir string
	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		workDir = dir
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := NewEngine("pdflatex", 30*time.Millisecond, 3).Render(context.Background(), testDoc())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout did not bound the render")
	}
	if _, statErr := os.Stat(workDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("render dir %s not cleaned up after timeout", workDir)
	}
}

func TestRenderCallerCancellationIsNotTimeout(t *testing.T) {
	stubSeams(t)

	var workDir string
	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		workDir = dir
		<-ctx.Done()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := NewEngine("pdflatex", time.Minute, 3).Render(ctx, testDoc())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("caller cancellation reported as a render timeout")
	}
	if _, statErr := os.Stat(workDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("render dir %s not cleaned up after cancellation", workDir)
	}
}

func TestRenderPreviewFailureIsNotFatal(t *testing.T) {
	stubSeams(t)

	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		writePDF(t, dir, "%PDF-1.5 stub")
		return []byte("ok"), nil
	}
	countPages = func(b []byte) (int, error) { return 1, nil }
	rasterizePreview = func(b []byte) ([]byte, error) { return nil, errors.New("mupdf unavailable") }

	res, err := NewEngine("pdflatex", time.Minute, 1).Render(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Preview != nil {
		t.Fatal("preview should be empty when rasterization fails")
	}
	if len(res.PDF) == 0 {
		t.Fatal("pdf lost")
	}
}

func TestRenderMissingPDFIsCompileError(t *testing.T) {
	stubSeams(t)

	runCompiler = func(ctx context.Context, compiler, dir, texFile string) ([]byte, error) {
		return []byte("ok but wrote nothing"), nil
	}

	_, err := NewEngine("pdflatex", time.Minute, 1).Render(context.Background(), testDoc())
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("err = %v, want ErrCompileFailed", err)
	}
}

func TestDiagnosticTail(t *testing.T) {
	marked := "noise\n! First error.\nmid\n! Second error.\n"
	if got := diagnosticTail([]byte(marked)); got != "! First error.; ! Second error." {
		t.Fatalf("marked diagnostics = %q", got)
	}

	long := strings.Repeat("x", 1024) + "the end"
	got := diagnosticTail([]byte(long))
	if len(got) > 512 || !strings.HasSuffix(got, "the end") {
		t.Fatalf("tail fallback = %q (len %d)", got, len(got))
	}
}
