// Package cache describes the engine versions whose tag caches this module reads and writes.
//
// Versions are ordered: field applicability ranges compare them with < and >,
// so new entries must be inserted in release order.
package cache

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Version identifies an engine build whose tag layouts differ from its neighbours.
type Version uint8

const (
	// Unknown is the zero version. In field ranges it means "unbounded".
	Unknown Version = iota
	Halo2Xbox
	Halo2Vista
	Halo3Beta
	Halo3Retail
	Halo3ODST
	HaloOnline106708
	HaloOnline700123
	HaloReach

	versionCount
)

var versionNames = [...]string{
	Unknown:          "Unknown",
	Halo2Xbox:        "Halo2Xbox",
	Halo2Vista:       "Halo2Vista",
	Halo3Beta:        "Halo3Beta",
	Halo3Retail:      "Halo3Retail",
	Halo3ODST:        "Halo3ODST",
	HaloOnline106708: "HaloOnline106708",
	HaloOnline700123: "HaloOnline700123",
	HaloReach:        "HaloReach",
}

// Generation groups versions that share a cache file layout.
type Generation uint8

const (
	// AnyGeneration matches every version.
	AnyGeneration Generation = iota
	Gen2
	Gen3
	GenHaloOnline
)

// String returns the version name.
func (v Version) String() string {
	if v < versionCount {
		return versionNames[v]
	}
	return fmt.Sprintf("Version(%d)", uint8(v))
}

// Valid reports whether v is a known, non-zero version.
func (v Version) Valid() bool {
	return v > Unknown && v < versionCount
}

// Generation returns the cache generation the version belongs to.
func (v Version) Generation() Generation {
	switch v {
	case Halo2Xbox, Halo2Vista:
		return Gen2
	case Halo3Beta, Halo3Retail, Halo3ODST, HaloReach:
		return Gen3
	case HaloOnline106708, HaloOnline700123:
		return GenHaloOnline
	default:
		return AnyGeneration
	}
}

// ByteOrder returns the byte order of tag data for the version.
// Xbox 360 caches (third generation) are big-endian; everything else is little-endian.
func (v Version) ByteOrder() binary.ByteOrder {
	if v.Generation() == Gen3 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// String returns the generation name.
func (g Generation) String() string {
	switch g {
	case AnyGeneration:
		return "Any"
	case Gen2:
		return "Gen2"
	case Gen3:
		return "Gen3"
	case GenHaloOnline:
		return "HaloOnline"
	default:
		return fmt.Sprintf("Generation(%d)", uint8(g))
	}
}

// Versions returns every known version in ascending order.
func Versions() []Version {
	versions := make([]Version, 0, versionCount-1)
	for v := Unknown + 1; v < versionCount; v++ {
		versions = append(versions, v)
	}
	return versions
}

// First returns the oldest known version.
func First() Version { return Unknown + 1 }

// Last returns the newest known version.
func Last() Version { return versionCount - 1 }

// ParseVersion parses a version name case-insensitively.
func ParseVersion(s string) (Version, error) {
	for v := Unknown + 1; v < versionCount; v++ {
		if strings.EqualFold(versionNames[v], s) {
			return v, nil
		}
	}
	return Unknown, fmt.Errorf("unknown cache version %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so versions can appear in config files.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
