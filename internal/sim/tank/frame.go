package tank

import "frogtank.app/internal/protocol"

// buildFrame snapshots the tick into the wire form every client gets.
// One frame is built per tick and fanned out; per-client views are a
// non-goal.
func (w *World) buildFrame(nowTick uint64) protocol.FrameMsg {
	f := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Mode:            string(w.mode),
		Camera: protocol.CameraState{
			Pos:    arr3(w.camera.Pos),
			LookAt: arr3(w.camera.LookAt),
		},
	}
	if a := w.avatar; a != nil {
		f.Avatar = &protocol.AvatarState{
			Pos:          arr3(a.Pos),
			Vel:          arr3(a.Vel),
			Yaw:          a.Yaw,
			AnimTime:     a.AnimTime,
			DashCooldown: a.DashCooldown,
			Autopilot:    w.auto.Active,
			Placeholder:  a.Placeholder,
		}
	}
	if len(w.flock.agents) > 0 {
		f.Agents = make([]protocol.AgentState, 0, len(w.flock.agents))
		for _, ag := range w.flock.agents {
			st := protocol.AgentState{
				ID:     ag.ID,
				Pos:    arr3(ag.Pos),
				Vel:    arr3(ag.Vel),
				Yaw:    ag.Yaw,
				Moving: ag.Moving,
			}
			if ag.Target != nil {
				st.TargetID = ag.Target.ID
			}
			f.Agents = append(f.Agents, st)
		}
	}
	if w.sel.Focused != nil {
		f.FocusID = w.sel.Focused.ID
		f.Highlight = &protocol.HighlightState{
			ObjectID: w.sel.Focused.ID,
			Opacity:  w.sel.pulseOpacity,
			Scale:    w.sel.pulseScale,
		}
	}
	if ss := w.scroller; ss != nil {
		st := protocol.ScrollerState{
			FolderID: ss.Folder.ID,
			Player: protocol.PlayerState{
				Pos:       arr2(ss.Player.Pos),
				Vel:       arr2(ss.Player.Vel),
				Grounded:  ss.Player.Grounded,
				JumpCount: ss.Player.JumpCount,
				MaxJumps:  ss.Player.MaxJumps,
			},
			Camera: [2]float64{ss.CamX, ss.CamY},
		}
		for _, pl := range ss.Platforms {
			st.Platforms = append(st.Platforms, protocol.PlatformState{
				Pos:   arr2(pl.Pos),
				Width: pl.Width,
				Label: pl.Label,
				Kind:  string(pl.Kind),
			})
		}
		f.Scroller = &st
	}
	if len(w.events) > 0 {
		f.Events = append([]protocol.Event(nil), w.events...)
	}
	if w.debugOverlay {
		f.Debug = w.buildDebug()
	}
	return f
}

func (w *World) buildDebug() *protocol.DebugState {
	og, om, _ := w.openScene.Counts()
	d := &protocol.DebugState{
		FlockEnabled:    w.flock.enabled,
		AutopilotActive: w.auto.Active,
		FocusScore:      w.sel.Score,
		MinAgentGap:     w.minAgentGap(),
		ObjectCount:     len(w.objects),
		OpenGeoms:       og,
		OpenMats:        om,
	}
	if w.scroller != nil {
		fg, fm, _ := w.scroller.reg.Counts()
		d.FolderGeoms = fg
		d.FolderMats = fm
	}
	return d
}
