package search

import (
	"regexp"
	"strconv"
	"strings"
)

var sizePattern = regexp.MustCompile(`(?i)([\d.]+)\s*(KiB|MiB|GiB|TiB|KB|MB|GB|TB)`)

// Binary units as indexers report them (KiB..TiB base-1024, KB..TB base-1000).
var sizeUnits = map[string]float64{
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
	"kb":  1e3,
	"mb":  1e6,
	"gb":  1e9,
	"tb":  1e12,
}

// ParseSize converts a human size string ("1.4 GiB") to bytes. Unparseable
// input yields 0, which is only ever used for sorting.
func ParseSize(s string) int64 {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int64(n * sizeUnits[strings.ToLower(m[2])])
}
