package tank

import "frogtank.app/internal/protocol"

// Mode selects which simulation family runs. Exactly one is active at
// a time; intent state is wiped on every transition so a key held
// across the boundary cannot stick.
type Mode string

const (
	ModeOpenWater    Mode = Mode(protocol.ModeOpenWater)
	ModeInsideFolder Mode = Mode(protocol.ModeInsideFolder)
)

// enterFolder dives into the focused folder: query the content index,
// build the side-scroller scene, switch modes. Reports false when the
// command cannot apply, with an error event explaining why.
func (w *World) enterFolder() bool {
	if w.mode != ModeOpenWater {
		w.pushError(protocol.ErrBadMode, "already inside a folder")
		return false
	}
	obj := w.sel.Focused
	if obj == nil || obj.Type != ObjectFolder {
		w.pushError(protocol.ErrNotFolder, "no folder in focus")
		return false
	}
	var files []FileEntry
	if w.content != nil {
		fs, err := w.content.FilesUnder(obj.Meta.Name)
		if err != nil {
			w.pushError(protocol.ErrInternal, "content index lookup failed")
		} else {
			files = fs
		}
	}
	w.scroller = newSideScroller(obj, files, w.tune.Scroller)
	w.mode = ModeInsideFolder
	w.intent = Intent{}
	w.ssIntent = ScrollIntent{}
	w.pushEvent(protocol.Event{Name: protocol.EventModeChanged, Mode: protocol.ModeInsideFolder, ObjectID: obj.ID})
	return true
}

// exitFolder tears the side-scroller down, handles and all, and
// returns to open water. The 3D scene was never touched, so the frog
// resumes exactly where it was left.
func (w *World) exitFolder() bool {
	if w.mode != ModeInsideFolder || w.scroller == nil {
		w.pushError(protocol.ErrBadMode, "not inside a folder")
		return false
	}
	w.scroller.dispose()
	w.scroller = nil
	w.mode = ModeOpenWater
	w.intent = Intent{}
	w.ssIntent = ScrollIntent{}
	w.pushEvent(protocol.Event{Name: protocol.EventModeChanged, Mode: protocol.ModeOpenWater})
	return true
}
