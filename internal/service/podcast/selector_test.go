package podcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datedEpisode(position int, title string, date *time.Time, enclosure bool) *Episode {
	episode := &Episode{Position: position, Title: title, PublishedAt: date}
	if enclosure {
		episode.EnclosureURL = "https://example.com/" + title + ".mp3"
	}

	return episode
}

func dateOf(year int, month time.Month, day int) *time.Time {
	value := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return &value
}

func titles(episodes []*Episode) []string {
	result := make([]string, 0, len(episodes))
	for _, episode := range episodes {
		result = append(result, episode.Title)
	}

	return result
}

// TestSelectEpisodes tests filtering, ordering, and truncation.
func TestSelectEpisodes(t *testing.T) {
	t.Parallel()

	feed := &Feed{
		Episodes: []*Episode{
			datedEpisode(1, "2023-01-01", dateOf(2023, time.January, 1), true),
			datedEpisode(2, "undated", nil, true),
			datedEpisode(3, "2023-06-01", dateOf(2023, time.June, 1), true),
			datedEpisode(4, "no-enclosure", dateOf(2024, time.January, 1), false),
		},
	}

	tests := []struct {
		name            string
		count           int
		expectedTitles  []string
		expectedDropped []string
	}{
		{
			name:            "count two keeps the newest",
			count:           2,
			expectedTitles:  []string{"2023-06-01", "2023-01-01"},
			expectedDropped: []string{"no-enclosure"},
		},
		{
			name:            "count three puts undated last",
			count:           3,
			expectedTitles:  []string{"2023-06-01", "2023-01-01", "undated"},
			expectedDropped: []string{"no-enclosure"},
		},
		{
			name:            "zero means all",
			count:           0,
			expectedTitles:  []string{"2023-06-01", "2023-01-01", "undated"},
			expectedDropped: []string{"no-enclosure"},
		},
		{
			name:            "count above size",
			count:           10,
			expectedTitles:  []string{"2023-06-01", "2023-01-01", "undated"},
			expectedDropped: []string{"no-enclosure"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := SelectEpisodes(feed, tt.count)

			assert.Equal(t, tt.expectedTitles, titles(result.Episodes))
			assert.Equal(t, tt.expectedDropped, titles(result.Dropped))
		})
	}
}

// TestSelectEpisodes_StableOrder tests that equal dates and undated episodes keep document order.
func TestSelectEpisodes_StableOrder(t *testing.T) {
	t.Parallel()

	sameDay := dateOf(2022, time.May, 5)
	feed := &Feed{
		Episodes: []*Episode{
			datedEpisode(1, "u1", nil, true),
			datedEpisode(2, "a", sameDay, true),
			datedEpisode(3, "u2", nil, true),
			datedEpisode(4, "b", sameDay, true),
			datedEpisode(5, "newer", dateOf(2022, time.June, 1), true),
		},
	}

	result := SelectEpisodes(feed, 0)

	assert.Equal(t, []string{"newer", "a", "b", "u1", "u2"}, titles(result.Episodes))
	assert.Empty(t, result.Dropped)
}

// TestSelectEpisodes_Invariants tests that selected episodes all have enclosures and respect the count.
func TestSelectEpisodes_Invariants(t *testing.T) {
	t.Parallel()

	feed := new(Feed)
	for i := 1; i <= 20; i++ {
		var date *time.Time
		if i%3 != 0 {
			date = dateOf(2020, time.Month(i%12+1), i)
		}

		feed.Episodes = append(feed.Episodes, datedEpisode(i, "ep", date, i%4 != 0))
	}

	for _, count := range []int{0, 1, 5, 15, 100} {
		result := SelectEpisodes(feed, count)

		assert.Len(t, result.Dropped, 5)

		if count > 0 {
			assert.LessOrEqual(t, len(result.Episodes), count)
		} else {
			assert.Len(t, result.Episodes, 15)
		}

		seenUndated := false

		for i, episode := range result.Episodes {
			assert.True(t, episode.HasEnclosure())

			if episode.PublishedAt == nil {
				seenUndated = true

				continue
			}

			assert.False(t, seenUndated, "dated episode after an undated one")

			if i > 0 && result.Episodes[i-1].PublishedAt != nil {
				assert.False(t, episode.PublishedAt.After(*result.Episodes[i-1].PublishedAt))
			}
		}
	}
}

// TestSelectEpisodes_NilFeed tests that a nil feed selects nothing.
func TestSelectEpisodes_NilFeed(t *testing.T) {
	t.Parallel()

	result := SelectEpisodes(nil, 3)

	assert.Empty(t, result.Episodes)
	assert.Empty(t, result.Dropped)
}
