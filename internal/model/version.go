package model

import (
	"math"
	"strconv"
	"strings"
)

// VersionCode derives a single comparable key from a dotted version string
// such as "6.1" or "5.9.2". Up to three numeric components are read (missing
// components default to 0) and packed as (major<<32)|(minor<<16)|patch.
//
// An empty or unparseable version returns math.MaxInt64: a proposal with no
// shipped version yet sorts after every known version, not before.
func VersionCode(version string) int64 {
	if version == "" {
		return math.MaxInt64
	}
	var parts [3]int64
	for i, c := range strings.Split(version, ".") {
		if i == len(parts) {
			break
		}
		n, err := strconv.ParseInt(c, 10, 16)
		if err != nil || n < 0 {
			return math.MaxInt64
		}
		parts[i] = n
	}
	return parts[0]<<32 | parts[1]<<16 | parts[2]
}
