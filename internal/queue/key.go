package queue

import (
	"sort"
	"strings"
)

const (
	keyIDSeparator   = ":"
	keyPartSeparator = "|"
)

// CanonicalKey identifies a (table set, relation set) selection.
// Ids are deduplicated and sorted so any permutation yields the same key:
// sort(tableIDs).join(":") + "|" + sort(relationIDs).join(":").
func CanonicalKey(tableIDs, relationIDs []string) string {
	return joinSorted(tableIDs) + keyPartSeparator + joinSorted(relationIDs)
}

func joinSorted(ids []string) string {
	set := make(map[string]struct{}, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, keyIDSeparator)
}
