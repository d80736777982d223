package assets

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	body := `models:
  - name: frog
    mesh: frog.glb
    animations: [swim, idle]
  - name: frog_small
    mesh: frog_small.glb
    scale: 0.6
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	m, ok := cat.Model("frog")
	if !ok {
		t.Fatalf("frog missing from catalog")
	}
	if m.Scale != 1.0 {
		t.Fatalf("unset scale: got %v want 1.0", m.Scale)
	}
	if got := cat.Names(); len(got) != 2 || got[0] != "frog" || got[1] != "frog_small" {
		t.Fatalf("Names: got %v", got)
	}
}

func TestLoadCatalogRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	body := "models:\n  - {name: frog, mesh: a.glb}\n  - {name: frog, mesh: b.glb}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatalf("duplicate model name accepted")
	}
}

func TestModelCloneIsIndependent(t *testing.T) {
	m := Model{Name: "frog", Mesh: "frog.glb", Animations: []string{"swim"}}
	c := m.Clone()
	c.Animations[0] = "idle"
	if m.Animations[0] != "swim" {
		t.Fatalf("clone shares animation slice")
	}
}

func TestRequestDeliversModel(t *testing.T) {
	l := NewLoader(DefaultCatalog(), "", time.Second, testLogger())
	out := make(chan Result, 1)
	l.Request("frog", out)
	r := <-out
	if r.Err != nil || r.TimedOut {
		t.Fatalf("unexpected failure: %+v", r)
	}
	if r.Model.Name != "frog" {
		t.Fatalf("model: got %q want frog", r.Model.Name)
	}
}

func TestRequestUnknownModel(t *testing.T) {
	l := NewLoader(DefaultCatalog(), "", time.Second, testLogger())
	out := make(chan Result, 1)
	l.Request("shark", out)
	r := <-out
	if r.Err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

func TestRequestTimesOut(t *testing.T) {
	l := NewLoader(DefaultCatalog(), "", 10*time.Millisecond, testLogger())
	block := make(chan struct{})
	defer close(block)
	l.fetch = func(Model) error {
		<-block
		return nil
	}
	out := make(chan Result, 1)
	l.Request("frog", out)
	select {
	case r := <-out:
		if !r.TimedOut {
			t.Fatalf("expected timeout, got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("no result within a second")
	}
}

func TestRequestFetchError(t *testing.T) {
	l := NewLoader(DefaultCatalog(), "", time.Second, testLogger())
	l.fetch = func(Model) error { return errors.New("boom") }
	out := make(chan Result, 1)
	l.Request("frog", out)
	r := <-out
	if r.Err == nil || r.TimedOut {
		t.Fatalf("expected fetch error, got %+v", r)
	}
}
