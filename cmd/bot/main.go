package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"frogtank.app/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "pilot name")
		seed   = flag.Int64("seed", 0, "behavior seed (0: time-based)")
		runFor = flag.Duration("for", 0, "exit after this long (0: until interrupted)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	bseed := *seed
	if bseed == 0 {
		bseed = time.Now().UnixNano()
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Role:            protocol.RolePilot,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var deadline <-chan time.Time
	if *runFor > 0 {
		deadline = time.After(*runFor)
	}

	b := &bot{
		conn:    conn,
		logger:  logger,
		rng:     rand.New(rand.NewSource(bseed)),
		folders: map[string]bool{},
	}

	for {
		select {
		case <-stop:
			return
		case <-deadline:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			for _, o := range w.Objects {
				b.folders[o.ID] = o.ObjType == "folder"
			}
			logger.Printf("WELCOME client_id=%s tick_rate=%d seed=%d objects=%d",
				w.ClientID, w.WorldParams.TickRateHz, w.WorldParams.Seed, len(w.Objects))

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)
			return

		case protocol.TypeFrame:
			var fm protocol.FrameMsg
			if err := json.Unmarshal(msg, &fm); err != nil {
				continue
			}
			b.handleFrame(&fm)
		}
	}
}

type bot struct {
	conn    *websocket.Conn
	logger  *log.Logger
	rng     *rand.Rand
	folders map[string]bool
	held    string
}

func (b *bot) handleFrame(fm *protocol.FrameMsg) {
	for _, ev := range fm.Events {
		switch ev.Name {
		case protocol.EventObjectAdded:
			if ev.Object != nil {
				b.folders[ev.Object.ID] = ev.Object.ObjType == "folder"
			}
		case protocol.EventObjectRemoved:
			delete(b.folders, ev.ObjectID)
		}
	}
	if fm.Mode == protocol.ModeInsideFolder {
		b.platform(fm)
		return
	}
	b.swim(fm)
}

// swim wanders: hold a direction for a few seconds, dash now and then,
// and dive into whatever folder drifts into focus.
func (b *bot) swim(fm *protocol.FrameMsg) {
	t := fm.Tick
	if t%90 == 0 {
		if b.held != "" {
			b.input(b.held, false)
		}
		dirs := []string{
			protocol.IntentForward, protocol.IntentForward, protocol.IntentForward,
			protocol.IntentLeft, protocol.IntentRight,
			protocol.IntentUp, protocol.IntentDown,
			"",
		}
		b.held = dirs[b.rng.Intn(len(dirs))]
		if b.held != "" {
			b.input(b.held, true)
		}
	}
	if t%300 == 15 {
		b.command(protocol.CmdDash)
	}
	if t%600 == 45 {
		b.command(protocol.CmdRealignCamera)
	}
	if t%1800 == 5 {
		b.command(protocol.CmdToggleFlock)
	}
	if t%240 == 30 && fm.FocusID != "" && b.folders[fm.FocusID] {
		if b.held != "" {
			b.input(b.held, false)
			b.held = ""
		}
		b.command(protocol.CmdEnterFolder)
	}
}

// platform runs and jumps across the folder's platforms, then leaves.
func (b *bot) platform(fm *protocol.FrameMsg) {
	t := fm.Tick
	if t%60 == 0 {
		next := protocol.IntentRight
		if b.rng.Intn(3) == 0 {
			next = protocol.IntentLeft
		}
		if b.held != next {
			if b.held != "" {
				b.input(b.held, false)
			}
			b.held = next
			b.input(b.held, true)
		}
	}
	if t%45 == 20 {
		b.input(protocol.IntentJump, true)
		b.input(protocol.IntentJump, false)
	}
	if t%900 == 60 {
		if b.held != "" {
			b.input(b.held, false)
			b.held = ""
		}
		b.command(protocol.CmdExitFolder)
	}
}

func (b *bot) input(intent string, pressed bool) {
	_ = b.conn.WriteJSON(protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Intent:          intent,
		Pressed:         pressed,
	})
}

func (b *bot) command(name string) {
	_ = b.conn.WriteJSON(protocol.CommandMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		Name:            name,
	})
}
