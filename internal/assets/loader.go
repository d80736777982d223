package assets

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Result is delivered exactly once per Request. TimedOut results mean the
// caller should fall back to a placeholder, not that the load failed hard.
type Result struct {
	Name     string
	Model    Model
	Err      error
	TimedOut bool
}

// Loader resolves models from the catalog off the sim goroutine. The only
// real IO is a stat of the mesh file when an assets dir is configured; the
// deadline guards against hung network mounts.
type Loader struct {
	cat     *Catalog
	dir     string
	timeout time.Duration
	fetch   func(Model) error
	logger  *log.Logger
}

func NewLoader(cat *Catalog, dir string, timeout time.Duration, logger *log.Logger) *Loader {
	l := &Loader{cat: cat, dir: dir, timeout: timeout, logger: logger}
	l.fetch = l.statMesh
	return l
}

func (l *Loader) statMesh(m Model) error {
	if l.dir == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(l.dir, m.Mesh)); err != nil {
		return fmt.Errorf("mesh %s: %w", m.Mesh, err)
	}
	return nil
}

// Request resolves name asynchronously and sends one Result on out.
func (l *Loader) Request(name string, out chan<- Result) {
	go func() {
		m, ok := l.cat.Model(name)
		if !ok {
			l.logger.Printf("model %q not in catalog", name)
			out <- Result{Name: name, Err: fmt.Errorf("model %q not in catalog", name)}
			return
		}
		done := make(chan error, 1)
		go func() { done <- l.fetch(m) }()
		select {
		case err := <-done:
			if err != nil {
				l.logger.Printf("load %s: %v", name, err)
				out <- Result{Name: name, Err: err}
				return
			}
			out <- Result{Name: name, Model: m}
		case <-time.After(l.timeout):
			l.logger.Printf("load %s: timed out after %s", name, l.timeout)
			out <- Result{Name: name, TimedOut: true}
		}
	}()
}
