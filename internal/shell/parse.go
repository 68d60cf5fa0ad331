// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package shell

import (
	"fmt"
	"math"
	"strconv"
)

// ParseNumber parses an unsigned integer with an optional multiplier
// suffix: s (x512), k (x1024), m (x1024^2), g (x1024^3). A 0x prefix
// selects hexadecimal.
func ParseNumber(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	var multiplier uint64 = 1

	switch s[len(s)-1] {
	case 's', 'S':
		multiplier = 512
	case 'k', 'K':
		multiplier = 1024
	case 'm', 'M':
		multiplier = 1024 * 1024
	case 'g', 'G':
		multiplier = 1024 * 1024 * 1024
	}

	if multiplier != 1 {
		s = s[:len(s)-1]
	}

	val, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, err
	}

	if val > math.MaxUint64/multiplier {
		return 0, fmt.Errorf("value %s overflows", s)
	}

	return val * multiplier, nil
}
