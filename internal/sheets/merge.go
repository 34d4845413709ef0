package sheets

import (
	"sort"

	"spesevoce/internal/core"
)

// MergeWithLocal appends remote records that have no local twin, where twins
// share timestamp, amount and description. The result is newest first; ties
// keep local-then-remote order.
func MergeWithLocal(local, remote []core.Record) []core.Record {
	merged := make([]core.Record, 0, len(local)+len(remote))
	merged = append(merged, local...)
	for _, r := range remote {
		dup := false
		for _, l := range merged {
			if l.SameEntry(r) {
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, r)
		}
	}
	SortNewestFirst(merged)
	return merged
}

func SortNewestFirst(records []core.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
}
