package tank

import (
	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/protocol"
)

// ObjectType classifies what a tank object stands for on disk.
type ObjectType string

const (
	ObjectFolder   ObjectType = "folder"
	ObjectDocument ObjectType = "document"
	ObjectImage    ObjectType = "image"
)

// ObjectMeta is the file-system identity behind a tank object.
type ObjectMeta struct {
	Name      string
	Path      string
	SizeBytes int64
	SizeText  string
	Count     int
}

// WorldObject is one floating item in the open-water scene.
type WorldObject struct {
	ID    string
	Pos   mgl64.Vec3
	Yaw   float64
	Scale float64
	Type  ObjectType
	Meta  ObjectMeta

	handles renderHandles
}

// FileEntry is a row from the content index.
type FileEntry struct {
	Name      string
	Path      string
	Type      ObjectType
	SizeBytes int64
	Count     int
}

// ContentIndex answers folder queries for the side-scroller. The world
// only ever asks on an enter_folder command, never per tick.
type ContentIndex interface {
	FilesUnder(folderName string) ([]FileEntry, error)
}

// ObjectEdit adds or removes one object live, driven by the directory
// watcher. Edits are batched per tick.
type ObjectEdit struct {
	Remove bool
	ID     string
	Object *WorldObject
}

// insertObject registers an object without announcing it. Used for the
// initial layout, before anyone is connected.
func (w *World) insertObject(obj *WorldObject) bool {
	if obj == nil || obj.ID == "" {
		return false
	}
	if _, exists := w.objByID[obj.ID]; exists {
		return false
	}
	if obj.Scale == 0 {
		obj.Scale = 1
	}
	obj.handles = allocPair(w.openScene, "object:"+obj.ID)
	w.objects = append(w.objects, obj)
	w.objByID[obj.ID] = obj
	return true
}

func (w *World) addObject(obj *WorldObject) bool {
	if !w.insertObject(obj) {
		return false
	}
	st := objectState(obj)
	w.pushEvent(protocol.Event{Name: protocol.EventObjectAdded, ObjectID: obj.ID, Object: &st})
	return true
}

// removeObject drops an object and clears every reference that points
// at it. Focus moves off it, targets forget it, and if the side
// scroller is inside it the scroller is torn down first.
func (w *World) removeObject(id string) bool {
	obj := w.objByID[id]
	if obj == nil {
		return false
	}
	if w.scroller != nil && w.scroller.Folder == obj {
		w.exitFolder()
	}
	delete(w.objByID, id)
	for i, o := range w.objects {
		if o == obj {
			w.objects = append(w.objects[:i], w.objects[i+1:]...)
			break
		}
	}
	releasePair(w.openScene, obj.handles)
	if w.sel.Focused == obj {
		w.setFocus(nil, 0)
	}
	if w.auto.Target == obj {
		w.auto.Target = nil
	}
	for _, ag := range w.flock.agents {
		if ag.Target == obj {
			ag.Target = nil
			ag.Moving = false
		}
	}
	w.pushEvent(protocol.Event{Name: protocol.EventObjectRemoved, ObjectID: id})
	return true
}

func objectState(o *WorldObject) protocol.ObjectState {
	return protocol.ObjectState{
		ID:        o.ID,
		Pos:       arr3(o.Pos),
		Yaw:       o.Yaw,
		Scale:     o.Scale,
		ObjType:   string(o.Type),
		Name:      o.Meta.Name,
		SizeText:  o.Meta.SizeText,
		SizeBytes: o.Meta.SizeBytes,
		Count:     o.Meta.Count,
	}
}

func objectFromState(st protocol.ObjectState) *WorldObject {
	return &WorldObject{
		ID:    st.ID,
		Pos:   vec3(st.Pos),
		Yaw:   st.Yaw,
		Scale: st.Scale,
		Type:  ObjectType(st.ObjType),
		Meta: ObjectMeta{
			Name:      st.Name,
			Path:      st.ID,
			SizeBytes: st.SizeBytes,
			SizeText:  st.SizeText,
			Count:     st.Count,
		},
	}
}

// ObjectStates snapshots a layout for session headers and welcomes.
func ObjectStates(objs []*WorldObject) []protocol.ObjectState {
	out := make([]protocol.ObjectState, 0, len(objs))
	for _, o := range objs {
		out = append(out, objectState(o))
	}
	return out
}

// ObjectsFromStates rebuilds a layout from a recorded snapshot.
func ObjectsFromStates(sts []protocol.ObjectState) []*WorldObject {
	out := make([]*WorldObject, 0, len(sts))
	for _, st := range sts {
		out = append(out, objectFromState(st))
	}
	return out
}
