package version

import (
	"fmt"
	"strconv"
	"strings"
)

// parts splits "v1.2.3" into its numeric components. Missing minor or patch numbers count as 0,
// and a pre-release suffix such as "-rc.1" is ignored.
func parts(v string) ([3]int, error) {
	var out [3]int

	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v, _, _ = strings.Cut(v, "-")

	fields := strings.Split(v, ".")
	if len(fields) > 3 {
		return out, fmt.Errorf("invalid version %q", v)
	}

	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return out, fmt.Errorf("invalid version %q: %w", v, err)
		}
		out[i] = n
	}

	return out, nil
}

// Compare orders two semantic versions: 1 if a is newer, -1 if b is newer, 0 if they are equal.
func Compare(a, b string) (int, error) {
	av, err := parts(a)
	if err != nil {
		return 0, err
	}

	bv, err := parts(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		switch {
		case av[i] > bv[i]:
			return 1, nil
		case av[i] < bv[i]:
			return -1, nil
		}
	}

	return 0, nil
}
