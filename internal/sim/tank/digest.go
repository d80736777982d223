package tank

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// stateDigest hashes every bit of simulation state in a canonical
// order. Two worlds fed the same seed and the same recorded per-tick
// inputs must produce byte-identical digests; anything cosmetic, like
// the wall-clock highlight pulse or the debug overlay flag, stays out.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte
	put := func(u uint64) {
		binary.LittleEndian.PutUint64(tmp[:], u)
		h.Write(tmp[:])
	}
	putF := func(f float64) { put(math.Float64bits(f)) }
	putV := func(v mgl64.Vec3) { putF(v[0]); putF(v[1]); putF(v[2]) }
	putS := func(s string) {
		put(uint64(len(s)))
		h.Write([]byte(s))
	}

	put(nowTick)
	put(uint64(w.cfg.Seed))
	putS(string(w.mode))

	if a := w.avatar; a != nil {
		h.Write([]byte{1})
		putV(a.Pos)
		putV(a.Vel)
		putF(a.Yaw)
		putF(a.DashCooldown)
		putF(a.AnimTime)
		putS(a.Model.Name)
		h.Write([]byte{boolByte(a.Placeholder)})
	} else {
		h.Write([]byte{0})
	}

	putV(w.camera.Pos)
	putV(w.camera.LookAt)
	putV(w.camera.Offset)

	h.Write([]byte{boolByte(w.auto.Active), boolByte(w.auto.armed)})
	if w.auto.Target != nil {
		putS(w.auto.Target.ID)
	} else {
		putS("")
	}
	putF(w.auto.lastInputMs)
	putF(w.auto.lastRealignMs)

	h.Write([]byte{boolByte(w.flock.enabled), boolByte(w.flock.modelReady), boolByte(w.flock.placeholder)})
	put(uint64(len(w.flock.agents)))
	for _, ag := range w.flock.agents {
		put(uint64(ag.ID))
		putV(ag.Pos)
		putV(ag.Vel)
		putF(ag.Yaw)
		h.Write([]byte{boolByte(ag.Moving)})
		if ag.Target != nil {
			putS(ag.Target.ID)
		} else {
			putS("")
		}
	}

	if w.sel.Focused != nil {
		putS(w.sel.Focused.ID)
		putF(w.sel.Score)
	} else {
		putS("")
	}

	put(uint64(len(w.objects)))
	for _, o := range w.objects {
		putS(o.ID)
		putV(o.Pos)
		putF(o.Yaw)
		putF(o.Scale)
		putS(string(o.Type))
	}

	if ss := w.scroller; ss != nil {
		h.Write([]byte{1})
		putS(ss.Folder.ID)
		putF(ss.Player.Pos[0])
		putF(ss.Player.Pos[1])
		putF(ss.Player.Vel[0])
		putF(ss.Player.Vel[1])
		h.Write([]byte{
			boolByte(ss.Player.Grounded),
			boolByte(ss.Player.OnBase),
			boolByte(ss.Player.dropping),
			boolByte(ss.Player.prevJump),
		})
		put(uint64(ss.Player.JumpCount))
		put(uint64(len(ss.Platforms)))
		for _, pl := range ss.Platforms {
			putF(pl.Pos[0])
			putF(pl.Pos[1])
			putF(pl.Width)
			putS(pl.Label)
		}
		putF(ss.CamX)
		putF(ss.CamY)
	} else {
		h.Write([]byte{0})
	}

	h.Write([]byte{
		boolByte(w.intent.Forward),
		boolByte(w.intent.Backward),
		boolByte(w.intent.Left),
		boolByte(w.intent.Right),
		boolByte(w.intent.Up),
		boolByte(w.intent.Down),
		boolByte(w.ssIntent.Left),
		boolByte(w.ssIntent.Right),
		boolByte(w.ssIntent.Jump),
		boolByte(w.ssIntent.Down),
	})

	return hex.EncodeToString(h.Sum(nil))
}
