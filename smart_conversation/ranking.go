package smart_conversation

import (
	"sort"

	"github.com/meysamhadeli/gitai/smart_conversation/models"
)

// RankCandidates merges candidates by path, keeping the highest priority with its reason at
// the first-seen position, then sorts by priority descending and truncates to limit. A limit
// outside 1..MaxShortlist means MaxShortlist.
func RankCandidates(candidates []models.FileCandidate, limit int) []models.FileCandidate {
	if limit <= 0 || limit > models.MaxShortlist {
		limit = models.MaxShortlist
	}

	index := make(map[string]int, len(candidates))
	merged := make([]models.FileCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if i, ok := index[candidate.FilePath]; ok {
			if candidate.Priority > merged[i].Priority {
				merged[i].Priority = candidate.Priority
				merged[i].Reason = candidate.Reason
			}
			continue
		}
		index[candidate.FilePath] = len(merged)
		merged = append(merged, candidate)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority > merged[j].Priority
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
