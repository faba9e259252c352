// Package idgen allocates the sequential identifiers used for classes (T001)
// and students (A001).
package idgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Next returns the identifier following the lexicographically greatest id in
// existing that carries prefix and a numeric suffix. With no such id it
// returns the first one, e.g. Next(nil, "T", 3) == "T001".
//
// Allocation reads then writes without coordination, so two concurrent callers
// can receive the same id.
func Next(existing []string, prefix string, width int) string {
	candidates := make([]string, 0, len(existing))
	for _, id := range existing {
		if strings.HasPrefix(id, prefix) {
			candidates = append(candidates, id)
		}
	}
	sort.Strings(candidates)

	next := 1
	for i := len(candidates) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(strings.TrimPrefix(candidates[i], prefix))
		if err != nil || n < 0 {
			continue
		}
		next = n + 1
		break
	}
	return fmt.Sprintf("%s%0*d", prefix, width, next)
}
