package algo

import (
	"sort"

	"github.com/huangsam/opendxi/schema"
)

// RankDevelopers sorts developers by DXI score in descending order.
// Ties are broken by login so the order is deterministic.
func RankDevelopers(devs []schema.DeveloperMetrics) {
	sort.SliceStable(devs, func(i, j int) bool {
		if devs[i].DXIScore != devs[j].DXIScore {
			return devs[i].DXIScore > devs[j].DXIScore
		}
		return devs[i].Developer < devs[j].Developer
	})
}

// TopDevelopers returns at most limit developers in ranked order.
// If limit is not positive or exceeds the count, all developers are returned.
func TopDevelopers(devs []schema.DeveloperMetrics, limit int) []schema.DeveloperMetrics {
	ranked := make([]schema.DeveloperMetrics, len(devs))
	copy(ranked, devs)
	RankDevelopers(ranked)
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
