package log

import (
	"path/filepath"
	"testing"

	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tank"
	"frogtank.app/internal/sim/tuning"
)

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewSessionWriter(dir, "s-42")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	head := SessionHeader{
		SessionID:  "s-42",
		StartedAt:  "2026-08-23T10:00:00Z",
		Seed:       7,
		TickRateHz: 30,
		Tuning:     tuning.Default(),
		Objects: []protocol.ObjectState{
			{ID: "projects", Pos: [3]float64{0, 10, 8}, Scale: 1, ObjType: "folder", Name: "projects", Count: 2},
		},
	}
	if err := w.WriteHeader(head); err != nil {
		t.Fatalf("write header: %v", err)
	}
	ticks := []tank.TickLogEntry{
		{Tick: 0, Loads: []tank.RecordedLoad{{Kind: tank.LoadKindAvatar, ModelName: "frog"}}, Digest: "d0"},
		{Tick: 1, Inputs: []tank.RecordedInput{{Intent: "forward", Pressed: true}}, Digest: "d1"},
		{Tick: 2, Commands: []tank.RecordedCommand{{Name: "dash"}}, Digest: "d2"},
	}
	for _, e := range ticks {
		if err := w.WriteTick(e); err != nil {
			t.Fatalf("write tick %d: %v", e.Tick, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ses, err := ReadSession(w.Path())
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if ses.Header.SessionID != "s-42" || ses.Header.Seed != 7 || ses.Header.TickRateHz != 30 {
		t.Fatalf("header mangled: %+v", ses.Header)
	}
	if len(ses.Header.Objects) != 1 || ses.Header.Objects[0].ID != "projects" {
		t.Fatalf("header objects mangled: %+v", ses.Header.Objects)
	}
	if ses.Header.Tuning.TickRateHz != tuning.Default().TickRateHz {
		t.Fatalf("tuning did not survive: %+v", ses.Header.Tuning)
	}
	if len(ses.Ticks) != 3 {
		t.Fatalf("ticks: got %d want 3", len(ses.Ticks))
	}
	if ses.Ticks[1].Inputs[0].Intent != "forward" || !ses.Ticks[1].Inputs[0].Pressed {
		t.Fatalf("tick 1 inputs mangled: %+v", ses.Ticks[1])
	}
	if ses.Ticks[2].Commands[0].Name != "dash" || ses.Ticks[2].Digest != "d2" {
		t.Fatalf("tick 2 mangled: %+v", ses.Ticks[2])
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	w, err := NewSessionWriter(t.TempDir(), "s-close")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.WriteTick(tank.TickLogEntry{Tick: 1}); err == nil {
		t.Fatalf("write after close should fail")
	}
}

func TestReadRejectsHeaderlessLog(t *testing.T) {
	dir := t.TempDir()
	w, err := NewSessionWriter(dir, "s-bad")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteTick(tank.TickLogEntry{Tick: 0, Digest: "d0"}); err != nil {
		t.Fatalf("write tick: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := ReadSession(filepath.Join(dir, "s-bad.jsonl.zst")); err == nil {
		t.Fatalf("headerless log should be rejected")
	}
}

func TestReadMissingFileFails(t *testing.T) {
	if _, err := ReadSession(filepath.Join(t.TempDir(), "nope.jsonl.zst")); err == nil {
		t.Fatalf("missing file should error")
	}
}
