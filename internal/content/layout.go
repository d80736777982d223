package content

import (
	"hash/fnv"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/sim/tank"
	"frogtank.app/internal/sim/tuning"
)

// Placement is hash-driven so a rescan of the same directory rebuilds
// the same scene: each object type gets an anchor on a ring around the
// tank center and every entry spreads around its anchor by bits of its
// path hash.

var clusterAngle = map[tank.ObjectType]float64{
	tank.ObjectFolder:   0,
	tank.ObjectDocument: 2 * math.Pi / 3,
	tank.ObjectImage:    4 * math.Pi / 3,
}

func hashFracs(path string) (a, b, c float64) {
	h := fnv.New64a()
	h.Write([]byte(path))
	v := h.Sum64()
	a = float64(v&0xFFFF) / 0xFFFF
	b = float64((v>>16)&0xFFFF) / 0xFFFF
	c = float64((v>>32)&0xFFFF) / 0xFFFF
	return a, b, c
}

// PlaceEntry maps one root-level entry to its spot in the tank.
func PlaceEntry(e Entry, tk tuning.Tank, lay tuning.Layout) *tank.WorldObject {
	a, b, c := hashFracs(e.Path)
	ang := clusterAngle[e.Type] + (a-0.5)*1.2
	radius := tk.Width*lay.RingFrac + (b-0.5)*lay.ClusterSpread

	limit := tk.Width - 2
	x := math.Sin(ang) * radius
	z := math.Cos(ang) * radius
	x = math.Max(-limit, math.Min(limit, x))
	z = math.Max(-limit, math.Min(limit, z))
	y := lay.MinHeight + c*(lay.MaxHeight-lay.MinHeight)

	sizeText := ""
	if e.Type != tank.ObjectFolder {
		sizeText = humanize.IBytes(uint64(e.SizeBytes))
	}
	return &tank.WorldObject{
		ID:    e.Path,
		Pos:   mgl64.Vec3{x, y, z},
		Yaw:   math.Atan2(-x, -z),
		Scale: 1,
		Type:  e.Type,
		Meta: tank.ObjectMeta{
			Name:      e.Name,
			Path:      e.Path,
			SizeBytes: e.SizeBytes,
			SizeText:  sizeText,
			Count:     e.Count,
		},
	}
}

// BuildLayout places every root-level entry; nested entries live only
// in the index, behind their folder.
func BuildLayout(entries []Entry, tk tuning.Tank, lay tuning.Layout) []*tank.WorldObject {
	var objs []*tank.WorldObject
	for _, e := range entries {
		if strings.Contains(e.Path, "/") {
			continue
		}
		objs = append(objs, PlaceEntry(e, tk, lay))
	}
	return objs
}
