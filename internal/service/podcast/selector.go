package podcast

import (
	"slices"
)

// SelectEpisodes picks the episodes to download.
// Episodes without an enclosure are dropped and reported. The rest are ordered newest first
// with undated episodes after every dated one, ties and undated episodes keeping document order.
// A positive count keeps only the first count episodes of that order.
func SelectEpisodes(feed *Feed, count int) *SelectionResult {
	result := &SelectionResult{
		Episodes: make([]*Episode, 0),
		Dropped:  make([]*Episode, 0),
	}

	if feed == nil {
		return result
	}

	for _, episode := range feed.Episodes {
		if episode.HasEnclosure() {
			result.Episodes = append(result.Episodes, episode)
		} else {
			result.Dropped = append(result.Dropped, episode)
		}
	}

	slices.SortStableFunc(result.Episodes, compareByDateDesc)

	if count > 0 && len(result.Episodes) > count {
		result.Episodes = result.Episodes[:count]
	}

	return result
}

// compareByDateDesc orders dated episodes newest first and undated ones last.
// Equal elements report zero so the stable sort keeps document order.
func compareByDateDesc(a, b *Episode) int {
	switch {
	case a.PublishedAt == nil && b.PublishedAt == nil:
		return 0
	case a.PublishedAt == nil:
		return 1
	case b.PublishedAt == nil:
		return -1
	}

	return b.PublishedAt.Compare(*a.PublishedAt)
}
