// Package log writes and reads session logs: one zstd-compressed JSONL
// file per server session, a header line first, then one line per tick.
// The header carries everything needed to rebuild the world the ticks
// were recorded against, so a log replays standalone.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tank"
	"frogtank.app/internal/sim/tuning"
)

const headerType = "header"

// SessionHeader is the first line of a session log.
type SessionHeader struct {
	Type       string                 `json:"type"`
	SessionID  string                 `json:"session_id"`
	StartedAt  string                 `json:"started_at"`
	Seed       int64                  `json:"seed"`
	TickRateHz int                    `json:"tick_rate_hz"`
	Tuning     tuning.Tuning          `json:"tuning"`
	Objects    []protocol.ObjectState `json:"objects"`
}

// SessionWriter appends lines to one session file. Satisfies
// tank.TickLogger; the world calls WriteTick from its loop goroutine,
// the server may Close from another, hence the mutex.
type SessionWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewSessionWriter(dir, sessionID string) (*SessionWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, sessionID+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &SessionWriter{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (s *SessionWriter) Path() string { return s.path }

func (s *SessionWriter) WriteHeader(h SessionHeader) error {
	h.Type = headerType
	return s.writeLine(h)
}

func (s *SessionWriter) WriteTick(e tank.TickLogEntry) error { return s.writeLine(e) }

func (s *SessionWriter) writeLine(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return fmt.Errorf("session log closed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *SessionWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errEnc error
	if s.w != nil {
		_ = s.w.Flush()
	}
	if s.enc != nil {
		errEnc = s.enc.Close()
		s.enc = nil
	}
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
	s.w = nil
	return errEnc
}

// Session is a fully decoded session log.
type Session struct {
	Header SessionHeader
	Ticks  []tank.TickLogEntry
}

func ReadSession(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: empty session log", filepath.Base(path))
	}
	var h SessionHeader
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		return nil, fmt.Errorf("%s: header: %w", filepath.Base(path), err)
	}
	if h.Type != headerType {
		return nil, fmt.Errorf("%s: first line is %q, not a session header", filepath.Base(path), h.Type)
	}

	ses := &Session{Header: h}
	for sc.Scan() {
		var e tank.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: tick line %d: %w", filepath.Base(path), len(ses.Ticks)+1, err)
		}
		ses.Ticks = append(ses.Ticks, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ses, nil
}
