package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizeRegex = regexp.MustCompile(`^([0-9]+)((?i:kb|mb|gb|tb|pb|eb))?$`)

// Powers of 1024 for each size unit.
var unitExponents = map[string]int{
	"":   0,
	"kb": 1,
	"mb": 2,
	"gb": 3,
	"tb": 4,
	"pb": 5,
	"eb": 6,
}

// ToBytes converts sizes like "512", "64kb" or "2MB" into bytes. The empty
// string is 0, meaning no limit.
func ToBytes(sizeRep string) (int64, error) {
	if sizeRep == "" {
		return 0, nil
	}

	matches := sizeRegex.FindStringSubmatch(sizeRep)
	if matches == nil {
		return 0, fmt.Errorf("invalid data size %q, expected a number optionally followed by one of kb, mb, gb, tb, pb, eb", sizeRep)
	}

	size, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid data size %q: %w", sizeRep, err)
	}

	for i := 0; i < unitExponents[strings.ToLower(matches[2])]; i++ {
		if size > math.MaxInt64/1024 {
			return 0, fmt.Errorf("data size %q does not fit in 64 bits", sizeRep)
		}
		size *= 1024
	}
	return size, nil
}
