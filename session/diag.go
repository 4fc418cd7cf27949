package session

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/dargor0/myhdl-cosim-bridge/signalset"
)

// diagnoseMismatch explains a positional/name mismatch between what the peer
// echoed and the descriptor actually bound at that position. When the
// echoed name is close to some other descriptor in the set, that is
// called out explicitly since it usually means the peer reordered its
// reply rather than used a stale name.
func diagnoseMismatch(set *signalset.Set, gotName, wantName string) string {
	closest, dist := nearestName(set, gotName)
	if closest != "" && closest != wantName && dist <= 2 {
		return fmt.Sprintf(
			"response named %q for positional slot %q (edit distance %d to %q, possibly reordered)",
			gotName, wantName, dist, closest,
		)
	}
	return fmt.Sprintf("response named %q for positional slot %q", gotName, wantName)
}

// nearestName finds the FROM_SET descriptor name with the smallest
// Levenshtein distance to candidate, returning "" if the set is empty.
func nearestName(set *signalset.Set, candidate string) (name string, distance int) {
	best := -1
	var bestName string
	for _, d := range set.Descriptors {
		dist := levenshtein.ComputeDistance(candidate, d.Name)
		if best == -1 || dist < best {
			best = dist
			bestName = d.Name
		}
	}
	if best == -1 {
		return "", 0
	}
	return bestName, best
}
