package assets

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Model describes a renderable asset. The server never parses mesh files;
// it ships the manifest entry and the client fetches the mesh itself.
type Model struct {
	Name       string   `yaml:"name"`
	Mesh       string   `yaml:"mesh"`
	Animations []string `yaml:"animations"`
	Scale      float64  `yaml:"scale"`
}

// Clone returns an independent copy. Loaded models are cloned per use so
// agents never share animation state.
func (m Model) Clone() Model {
	c := m
	if m.Animations != nil {
		c.Animations = append([]string(nil), m.Animations...)
	}
	return c
}

type Catalog struct {
	byName map[string]Model
}

type manifest struct {
	Models []Model `yaml:"models"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mf manifest
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("models.yaml: %w", err)
	}
	c := &Catalog{byName: make(map[string]Model, len(mf.Models))}
	for _, m := range mf.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("models.yaml: empty model name")
		}
		if m.Mesh == "" {
			return nil, fmt.Errorf("models.yaml: model %q has no mesh", m.Name)
		}
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("models.yaml: duplicate model %q", m.Name)
		}
		if m.Scale == 0 {
			m.Scale = 1.0
		}
		c.byName[m.Name] = m
	}
	return c, nil
}

// DefaultCatalog covers the two models the sim needs when no manifest is
// shipped alongside the binary.
func DefaultCatalog() *Catalog {
	return &Catalog{byName: map[string]Model{
		"frog": {
			Name:       "frog",
			Mesh:       "frog.glb",
			Animations: []string{"swim", "idle"},
			Scale:      1.0,
		},
		"frog_small": {
			Name:       "frog_small",
			Mesh:       "frog_small.glb",
			Animations: []string{"swim"},
			Scale:      0.6,
		},
	}}
}

func (c *Catalog) Model(name string) (Model, bool) {
	m, ok := c.byName[name]
	return m, ok
}

func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.byName))
	for n := range c.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
