package podcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/podcast-grabber/internal/apperror"
)

const richFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
     xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"
     xmlns:media="http://search.yahoo.com/mrss/"
     xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>  Rich Podcast  </title>
    <link>https://example.com</link>
    <description>About things</description>
    <itunes:author>Jane Host</itunes:author>
    <itunes:image href="https://example.com/cover.jpg"/>
    <item>
      <title>  First &amp; Best  </title>
      <pubDate>Thu, 01 Jun 2023 10:00:00 +0000</pubDate>
      <guid>ep-1</guid>
      <link>https://example.com/1</link>
      <description>Episode &lt;b&gt;one&lt;/b&gt;</description>
      <category>Tech</category>
      <category>News</category>
      <itunes:duration>01:02:03</itunes:duration>
      <itunes:episode>1</itunes:episode>
      <enclosure url="https://cdn.example.com/one.mp3" type="audio/mpeg" length="12345"/>
    </item>
    <item>
      <title>Media Only</title>
      <pubDate>not a date</pubDate>
      <content:encoded>Full content</content:encoded>
      <media:content url="https://cdn.example.com/two.m4a" type="audio/mp4" fileSize="99"/>
    </item>
    <item>
      <pubDate>2023-01-01</pubDate>
      <itunes:summary>Only a summary</itunes:summary>
      <itunes:author>Guest</itunes:author>
    </item>
  </channel>
</rss>`

// TestFeedParser_Parse tests parsing of a feed with varied items.
func TestFeedParser_Parse(t *testing.T) {
	t.Parallel()

	parsed, err := NewFeedParser().Parse([]byte(richFeed))
	require.NoError(t, err)

	assert.Equal(t, "Rich Podcast", parsed.Title)
	assert.Equal(t, "Jane Host", parsed.Author)
	assert.Equal(t, "https://example.com/cover.jpg", parsed.ImageURL)
	require.Len(t, parsed.Episodes, 3)

	first := parsed.Episodes[0]
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "First & Best", first.Title)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "https://cdn.example.com/one.mp3", first.EnclosureURL)
	assert.Equal(t, "audio/mpeg", first.EnclosureType)
	assert.Equal(t, int64(12345), first.EnclosureLength)
	assert.Equal(t, "ep-1", first.GUID)
	assert.Equal(t, "https://example.com/1", first.Link)
	assert.Equal(t, "Episode <b>one</b>", first.Description)
	assert.Equal(t, "01:02:03", first.Duration)
	assert.Equal(t, "1", first.EpisodeNumber)
	assert.Equal(t, []string{"Tech", "News"}, first.Categories)

	second := parsed.Episodes[1]
	assert.Equal(t, 2, second.Position)
	assert.Nil(t, second.PublishedAt, "unparseable dates are unknown")
	assert.Equal(t, "not a date", second.PublishedRaw)
	assert.Equal(t, "https://cdn.example.com/two.m4a", second.EnclosureURL)
	assert.Equal(t, "audio/mp4", second.EnclosureType)
	assert.Equal(t, "Full content", second.Description)

	third := parsed.Episodes[2]
	assert.Empty(t, third.Title)
	assert.Equal(t, "Episode 3", third.DisplayTitle())
	require.NotNil(t, third.PublishedAt)
	assert.Equal(t, 2023, third.PublishedAt.Year())
	assert.False(t, third.HasEnclosure())
	assert.Equal(t, "Only a summary", third.Description)
	assert.Equal(t, "Guest", third.Author)
}

// TestFeedParser_Parse_Errors tests that unusable documents fail with a parse error.
func TestFeedParser_Parse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty document", data: "   "},
		{name: "not a feed", data: "this is plain text, not a feed"},
		{name: "html page", data: "<html><body><p>Hello</p></body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := NewFeedParser().Parse([]byte(tt.data))
			require.Error(t, err)
			require.ErrorIs(t, err, apperror.ErrParse)
			assert.Nil(t, parsed)
		})
	}
}

// TestFeedParser_Parse_EmptyChannel tests that a feed without items is valid.
func TestFeedParser_Parse_EmptyChannel(t *testing.T) {
	t.Parallel()

	parsed, err := NewFeedParser().Parse([]byte(buildRSS("Empty", "")))
	require.NoError(t, err)
	assert.Equal(t, "Empty", parsed.Title)
	assert.Empty(t, parsed.Episodes)
}

// TestItemPublishDate_FallbackLayouts tests the layouts tried after gofeed gives up.
func TestItemPublishDate_FallbackLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected time.Time
	}{
		{name: "date and time", raw: "2023-03-04 05:06:07", expected: time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)},
		{name: "date only", raw: "2023-03-04", expected: time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			feedXML := buildRSS("Dates", "", testItem{title: "x", pubDate: tt.raw})

			parsed, err := NewFeedParser().Parse([]byte(feedXML))
			require.NoError(t, err)
			require.Len(t, parsed.Episodes, 1)
			require.NotNil(t, parsed.Episodes[0].PublishedAt)
			assert.True(t, parsed.Episodes[0].PublishedAt.Equal(tt.expected))
		})
	}
}
