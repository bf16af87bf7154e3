package evaluation

import (
	"fmt"
	"strconv"
	"strings"
)

type version []int

// parseVersion accepts dotted versions with an optional leading "v" and ignores any pre-release or build suffix
func parseVersion(s string) (version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if idx := strings.IndexAny(trimmed, "-+ "); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidVersion, s)
	}

	parts := strings.Split(trimmed, ".")
	result := make(version, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", errInvalidVersion, s)
		}
		result = append(result, n)
	}

	return result, nil
}

// compare returns -1, 0 or 1. Missing trailing components count as zero, so 1.2 == 1.2.0
func (v version) compare(other version) int {
	length := len(v)
	if len(other) > length {
		length = len(other)
	}

	for i := 0; i < length; i++ {
		a, b := v.component(i), other.component(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}

	return 0
}

func (v version) component(i int) int {
	if i < len(v) {
		return v[i]
	}

	return 0
}
