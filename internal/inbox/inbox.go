// Package inbox processes text files dropped into a wallet repo's inbox/
// directory: every line is classified and handed to the handler registered
// for its kind.
package inbox

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mycitadel/citadel/internal/classify"
)

// Handler acts on one recognized item and returns a short outcome.
type Handler func(ctx context.Context, r classify.Result) (string, error)

// Registry maps data kinds to handlers.
type Registry struct {
	handlers map[classify.Kind]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[classify.Kind]Handler)}
}

// Register adds a handler. Panics on a duplicate kind.
func (r *Registry) Register(kind classify.Kind, h Handler) {
	if _, ok := r.handlers[kind]; ok {
		panic("duplicate inbox handler: " + string(kind))
	}
	r.handlers[kind] = h
}

// Get returns the handler for kind, or nil.
func (r *Registry) Get(kind classify.Kind) Handler {
	return r.handlers[kind]
}

// inboxDir is the subdirectory scanned for pending files.
const inboxDir = "inbox"

// processedDir receives files whose every line was handled.
const processedDir = "inbox/processed"

// FileInfo describes a pending inbox file.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns .txt files in <repoRoot>/inbox/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, inboxDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Item is one non-blank line of an inbox file. Line is 1-based and counts
// blank lines.
type Item struct {
	Line int
	Text string
}

// ReadItems returns the non-blank lines of a file, trimmed.
func ReadItems(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var items []Item
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; sc.Scan(); n++ {
		if text := strings.TrimSpace(sc.Text()); text != "" {
			items = append(items, Item{Line: n, Text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return items, nil
}

// ClassifyAll classifies items concurrently. Results follow input order.
func ClassifyAll(ctx context.Context, items []string) ([]classify.Result, error) {
	results := make([]classify.Result, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = classify.Classify(item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkProcessed moves a file from inbox/ to inbox/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, inboxDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Outcome is what happened to one inbox line.
type Outcome struct {
	File    string
	Line    int
	Kind    classify.Kind
	Report  string
	Handled bool
	Detail  string
}

// Processor runs inbox files through the registry.
type Processor struct {
	repoRoot string
	registry *Registry
	logger   *zap.Logger
}

// NewProcessor creates a Processor. A nil logger discards output.
func NewProcessor(repoRoot string, registry *Registry, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{repoRoot: repoRoot, registry: registry, logger: logger}
}

// Run processes every pending file. A file moves to processed/ once all of
// its lines were handled; otherwise it stays for another attempt.
func (p *Processor) Run(ctx context.Context) ([]Outcome, error) {
	files, err := Scan(p.repoRoot)
	if err != nil {
		return nil, err
	}

	var outcomes []Outcome
	for _, f := range files {
		items, err := ReadItems(f.Path)
		if err != nil {
			return outcomes, err
		}
		texts := make([]string, len(items))
		for i, it := range items {
			texts[i] = it.Text
		}
		results, err := ClassifyAll(ctx, texts)
		if err != nil {
			return outcomes, err
		}

		allHandled := true
		for i, r := range results {
			o := Outcome{File: f.Name, Line: items[i].Line, Kind: r.Kind(), Report: r.Report}
			if h := p.registry.Get(r.Kind()); h != nil {
				detail, err := h(ctx, r)
				if err != nil {
					o.Detail = err.Error()
					p.logger.Warn("inbox handler failed", zap.String("file", f.Name), zap.Int("line", o.Line), zap.Error(err))
				} else {
					o.Handled = true
					o.Detail = detail
				}
			}
			if !o.Handled {
				allHandled = false
			}
			outcomes = append(outcomes, o)
		}

		if allHandled {
			if err := MarkProcessed(p.repoRoot, f.Name); err != nil {
				return outcomes, err
			}
			p.logger.Debug("inbox file processed", zap.String("file", f.Name), zap.Int("items", len(results)))
		}
	}
	return outcomes, nil
}
