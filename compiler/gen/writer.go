package gen

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// Writer renders jennifer files, formats them with goimports and writes
// them to disk.
type Writer struct {
	dryRun bool

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics tracks generation performance
type WriterMetrics struct {
	FilesGenerated int
	FilesUnchanged int
	FilesRemoved   int
	TotalBytes     int64
	RenderTime     time.Duration
	FormatTime     time.Duration
	WriteTime      time.Duration
}

// NewWriter creates a writer. A dry-run writer renders and formats but
// never touches the file system.
func NewWriter(dryRun bool) *Writer {
	return &Writer{dryRun: dryRun}
}

// Metrics returns a snapshot of the generation metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// Write renders f and writes it to path. It returns the formatted source
// and whether the file on disk was created or changed.
func (w *Writer) Write(path string, f *jen.File) ([]byte, bool, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, false, NewGenerationError("render", path, "rendering failed", err)
	}
	rendered := time.Now()

	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		// Write unformatted file for debugging (errors intentionally ignored as we're already in error state)
		if !w.dryRun {
			_ = os.WriteFile(path+".error", buf.Bytes(), 0o644)
		}
		return nil, false, NewGenerationError("format", path, "unformatted output written to "+filepath.Base(path)+".error", err)
	}
	formattedAt := time.Now()

	changed := true
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, formatted) {
		changed = false
	}
	if changed && !w.dryRun {
		if err := os.WriteFile(path, formatted, 0o644); err != nil {
			return nil, false, NewGenerationError("write", path, "writing failed", err)
		}
	}

	w.mu.Lock()
	w.metrics.RenderTime += rendered.Sub(start)
	w.metrics.FormatTime += formattedAt.Sub(rendered)
	w.metrics.WriteTime += time.Since(formattedAt)
	if changed {
		w.metrics.FilesGenerated++
	} else {
		w.metrics.FilesUnchanged++
	}
	w.metrics.TotalBytes += int64(len(formatted))
	w.mu.Unlock()
	return formatted, changed, nil
}

// Remove deletes path if it is a generated file. It reports whether a file
// was removed. Hand-written files are never touched.
func (w *Writer) Remove(path string) (bool, error) {
	ok, err := isGenerated(path)
	if err != nil || !ok {
		return false, err
	}
	if !w.dryRun {
		if err := os.Remove(path); err != nil {
			return false, NewGenerationError("write", path, "removing stale file failed", err)
		}
	}
	w.mu.Lock()
	w.metrics.FilesRemoved++
	w.mu.Unlock()
	return true, nil
}

var generatedRe = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)

// IsGeneratedHeader reports whether the header comment, without its
// leading slashes, marks a file as generated.
func IsGeneratedHeader(header string) bool {
	return generatedRe.MatchString("// " + header)
}

// isGenerated reports whether the file at path carries a generated-code
// comment before its package clause.
func isGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if generatedRe.Match(line) {
			return true, nil
		}
		if bytes.HasPrefix(line, []byte("package ")) {
			break
		}
	}
	return false, sc.Err()
}
