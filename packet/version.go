package packet

import (
	"fmt"
	"math"
)

// Version is a protocol version number as sent in the handshake.
type Version int32

const (
	V1_8    Version = 47
	V1_12_2 Version = 340
	V1_16   Version = 735
	V1_16_5 Version = 754
	V1_19   Version = 759
	V1_19_1 Version = 760
	V1_19_3 Version = 761
	V1_20_1 Version = 763
	V1_20_2 Version = 764

	MaxVersion Version = math.MaxInt32
)

var versionNames = map[Version]string{
	V1_8:    "1.8",
	V1_12_2: "1.12.2",
	V1_16:   "1.16",
	V1_16_5: "1.16.5",
	V1_19:   "1.19",
	V1_19_1: "1.19.1",
	V1_19_3: "1.19.3",
	V1_20_1: "1.20.1",
	V1_20_2: "1.20.2",
}

func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return fmt.Sprintf("%s (%d)", name, int32(v))
	}
	return fmt.Sprintf("protocol %d", int32(v))
}

// VersionRange is an inclusive range of protocol versions.
type VersionRange struct {
	Min, Max Version
}

// Since returns the range of all versions starting at v.
func Since(v Version) VersionRange {
	return VersionRange{Min: v, Max: MaxVersion}
}

// Between returns the inclusive range [min, max].
func Between(min, max Version) VersionRange {
	return VersionRange{Min: min, Max: max}
}

// Only returns the range containing v alone.
func Only(v Version) VersionRange {
	return VersionRange{Min: v, Max: v}
}

func (r VersionRange) Contains(v Version) bool {
	return r.Min <= v && v <= r.Max
}

func (r VersionRange) Overlaps(o VersionRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

func (r VersionRange) String() string {
	if r.Max == MaxVersion {
		return fmt.Sprintf("[%d, ...]", int32(r.Min))
	}
	return fmt.Sprintf("[%d, %d]", int32(r.Min), int32(r.Max))
}
