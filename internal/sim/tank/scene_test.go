package tank

import "testing"

func TestSceneRegistryBalancesBooks(t *testing.T) {
	r := newSceneRegistry("test")
	g := r.AllocGeometry("frog")
	m := r.AllocMaterial("frog")
	x := r.AllocMixer("frog")
	if g == m || m == x {
		t.Fatalf("handle ids must be distinct: %d %d %d", g, m, x)
	}
	if gc, mc, xc := r.Counts(); gc != 1 || mc != 1 || xc != 1 {
		t.Fatalf("counts after alloc: %d %d %d", gc, mc, xc)
	}
	r.ReleaseGeometry(g)
	r.ReleaseMaterial(m)
	r.ReleaseMixer(x)
	if gc, mc, xc := r.Counts(); gc != 0 || mc != 0 || xc != 0 {
		t.Fatalf("counts after release: %d %d %d", gc, mc, xc)
	}
}

func TestSceneRegistryDoubleReleaseIsHarmless(t *testing.T) {
	r := newSceneRegistry("test")
	h := allocPair(r, "obj")
	releasePair(r, h)
	releasePair(r, h)
	if gc, mc, _ := r.Counts(); gc != 0 || mc != 0 {
		t.Fatalf("double release corrupted counts: %d %d", gc, mc)
	}
}

func TestDisposeAllDropsEverything(t *testing.T) {
	r := newSceneRegistry("test")
	for i := 0; i < 5; i++ {
		allocPair(r, "obj")
	}
	r.AllocMixer("player")
	r.DisposeAll()
	if gc, mc, xc := r.Counts(); gc != 0 || mc != 0 || xc != 0 {
		t.Fatalf("dispose left handles: %d %d %d", gc, mc, xc)
	}
}

// Every object insert and remove must keep the open-water books
// balanced, highlight pair included.
func TestObjectLifecycleLeavesNoHandles(t *testing.T) {
	w := testWorld(t, 90)
	spawnTestAvatar(t, w)
	g0, m0, _ := w.openScene.Counts()

	w.StepOnce(nil, nil, nil, []ObjectEdit{{Object: objectFromState(objectState(testLayout()[0]))}}, nil)
	stepN(w, 2)
	if w.sel.Focused == nil {
		t.Fatalf("fixture: object not focused")
	}
	w.StepOnce(nil, nil, nil, []ObjectEdit{{Remove: true, ID: "projects"}}, nil)

	g1, m1, _ := w.openScene.Counts()
	if g1 != g0 || m1 != m0 {
		t.Fatalf("object lifecycle leaked: geoms %d->%d mats %d->%d", g0, g1, m0, m1)
	}
}
