package tank

// SceneRegistry tracks render-side resource handles: geometries,
// materials and animation mixers. The server never touches GPU memory,
// but it owns object lifetimes, so it books every handle a client
// would have to create and verifies the books balance when a scene is
// torn down. Leaks here are leaks on screen.
type SceneRegistry struct {
	name   string
	nextID uint64
	geoms  map[uint64]string
	mats   map[uint64]string
	mixers map[uint64]string
}

func newSceneRegistry(name string) *SceneRegistry {
	return &SceneRegistry{
		name:   name,
		geoms:  map[uint64]string{},
		mats:   map[uint64]string{},
		mixers: map[uint64]string{},
	}
}

func (r *SceneRegistry) AllocGeometry(tag string) uint64 {
	r.nextID++
	r.geoms[r.nextID] = tag
	return r.nextID
}

func (r *SceneRegistry) AllocMaterial(tag string) uint64 {
	r.nextID++
	r.mats[r.nextID] = tag
	return r.nextID
}

func (r *SceneRegistry) AllocMixer(tag string) uint64 {
	r.nextID++
	r.mixers[r.nextID] = tag
	return r.nextID
}

func (r *SceneRegistry) ReleaseGeometry(id uint64) { delete(r.geoms, id) }
func (r *SceneRegistry) ReleaseMaterial(id uint64) { delete(r.mats, id) }
func (r *SceneRegistry) ReleaseMixer(id uint64)    { delete(r.mixers, id) }

// Counts reports live handles per kind.
func (r *SceneRegistry) Counts() (geoms, mats, mixers int) {
	return len(r.geoms), len(r.mats), len(r.mixers)
}

// DisposeAll drops every live handle. Used when a whole scene goes
// away, such as leaving a folder.
func (r *SceneRegistry) DisposeAll() {
	clear(r.geoms)
	clear(r.mats)
	clear(r.mixers)
}

// renderHandles is the usual geometry+material pair an entity owns.
type renderHandles struct {
	geom uint64
	mat  uint64
}

func allocPair(r *SceneRegistry, tag string) renderHandles {
	return renderHandles{geom: r.AllocGeometry(tag), mat: r.AllocMaterial(tag)}
}

func releasePair(r *SceneRegistry, h renderHandles) {
	r.ReleaseGeometry(h.geom)
	r.ReleaseMaterial(h.mat)
}
