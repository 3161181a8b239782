package stringid

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/EchoTools/tagtool/pkg/cache"
)

// Profile is a named resolver configuration for one or more versions.
type Profile struct {
	Name        string          `yaml:"name"`
	Versions    []cache.Version `yaml:"versions"`
	LengthBits  int             `yaml:"length_bits"`
	SetBits     int             `yaml:"set_bits"`
	IndexBits   int             `yaml:"index_bits"`
	MinSetIndex int             `yaml:"min_set_index"`
	MaxSetIndex int             `yaml:"max_set_index"`
	SetOffsets  []int           `yaml:"set_offsets"`
}

// Resolver builds the resolver described by the profile.
func (p *Profile) Resolver() (*Resolver, error) {
	r := &Resolver{
		LengthBits:  p.LengthBits,
		SetBits:     p.SetBits,
		IndexBits:   p.IndexBits,
		MinSetIndex: p.MinSetIndex,
		MaxSetIndex: p.MaxSetIndex,
		SetOffsets:  slices.Clone(p.SetOffsets),
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return r, nil
}

// Profiles is a set of resolver profiles as loaded from a config file.
type Profiles struct {
	Resolvers []Profile `yaml:"resolvers"`
}

// LoadProfiles decodes profiles from YAML and validates every entry.
func LoadProfiles(r io.Reader) (*Profiles, error) {
	var profiles Profiles
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	seen := make(map[cache.Version]string)
	for i := range profiles.Resolvers {
		p := &profiles.Resolvers[i]
		if _, err := p.Resolver(); err != nil {
			return nil, err
		}
		for _, v := range p.Versions {
			if other, dup := seen[v]; dup {
				return nil, fmt.Errorf("version %s claimed by profiles %s and %s", v, other, p.Name)
			}
			seen[v] = p.Name
		}
	}
	return &profiles, nil
}

// LoadProfilesFile reads profiles from a YAML file.
func LoadProfilesFile(path string) (*Profiles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer f.Close()

	return LoadProfiles(f)
}

// ForVersion returns the resolver configured for v.
func (p *Profiles) ForVersion(v cache.Version) (*Resolver, error) {
	for i := range p.Resolvers {
		if slices.Contains(p.Resolvers[i].Versions, v) {
			return p.Resolvers[i].Resolver()
		}
	}
	return nil, fmt.Errorf("no string id profile for version %s", v)
}
