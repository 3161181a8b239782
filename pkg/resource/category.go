package resource

import (
	"fmt"
	"strings"
)

// Category names a resource cache. Each category lives in its own file.
type Category uint8

const (
	Resources Category = iota
	Textures
	TexturesB
	Audio
	ResourcesB
	RenderModels
	Lightmaps
	Mods

	categoryCount
)

var categoryNames = [...]string{
	Resources:    "resources",
	Textures:     "textures",
	TexturesB:    "textures_b",
	Audio:        "audio",
	ResourcesB:   "resources_b",
	RenderModels: "render_models",
	Lightmaps:    "lightmaps",
	Mods:         "mods",
}

func (c Category) String() string {
	if c < categoryCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// FileName returns the cache file name for the category.
func (c Category) FileName() string {
	return c.String() + ".dat"
}

// Categories returns every known category.
func Categories() []Category {
	cats := make([]Category, categoryCount)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// ParseCategory parses a category name, with or without the .dat suffix.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSuffix(strings.ToLower(s), ".dat")
	for c, name := range categoryNames {
		if name == s {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("unknown resource category %q", s)
}
