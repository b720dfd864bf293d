package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownScene is returned by Load for an unregistered id
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

type entry struct {
	info  SceneInfo
	build func(info SceneInfo) (*Scene, error)
}

var builtins = map[string]entry{}

func register(id, group, description string, build func(info SceneInfo) (*Scene, error)) {
	builtins[id] = entry{
		info: SceneInfo{
			ID:          id,
			Name:        titleCase(id),
			Description: description,
			Group:       group,
		},
		build: build,
	}
}

func init() {
	register("slab", "Analytic", "absorbing slab of optical thickness 2 under a normal pencil beam",
		func(info SceneInfo) (*Scene, error) { return NewAbsorbingSlab(info, 2) })
	register("infinite-medium", "Analytic", "isotropic point source in a purely absorbing medium",
		func(info SceneInfo) (*Scene, error) { return NewInfiniteMedium(info, 1, 1) })
	register("scattering-sphere", "Analytic", "point source inside a non-absorbing scattering sphere",
		func(info SceneInfo) (*Scene, error) { return NewScatteringSphere(info, 10, 0.9, 1.0) })
	register("layered-slab", "Tissue", "three refractive tissue layers with wavelength dependent optics",
		NewLayeredSlab)
	register("nested", "Geometry", "glass shell around a rotated mesh, a mirror box and a detector",
		NewNested)
	register("cuvette", "Geometry", "fibre detector in a glass cuvette of scattering liquid",
		NewCuvette)
}

// ListScenes returns the built-in scenes sorted by group, then name
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtins))
	for _, e := range builtins {
		scenes = append(scenes, e.info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		if scenes[i].Group != scenes[j].Group {
			return scenes[i].Group < scenes[j].Group
		}
		return scenes[i].Name < scenes[j].Name
	})
	return scenes
}

// Load builds a built-in scene by id
func Load(id string) (*Scene, error) {
	e, ok := builtins[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	return e.build(e.info)
}

// titleCase converts an id to title case
// e.g., "layered-slab" -> "Layered Slab"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
