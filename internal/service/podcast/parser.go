package podcast

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// FeedParser turns a raw feed document into a Feed.
type FeedParser interface {
	// Parse decodes an RSS, Atom, or JSON feed document.
	// Malformed documents and unrecognized formats fail with kind apperror.KindParse.
	Parse(data []byte) (*Feed, error)
}

// FeedParserImpl implements FeedParser on top of gofeed.
type FeedParserImpl struct{}

// ErrEmptyFeedDocument indicates that the fetched feed has no content.
var ErrEmptyFeedDocument = errors.New("empty feed document")

// fallbackDateLayouts are tried when gofeed cannot parse a publish date itself.
//
//nolint:gochecknoglobals // Read-only list of layouts.
var fallbackDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// NewFeedParser creates a new FeedParser instance.
func NewFeedParser() FeedParser {
	return new(FeedParserImpl)
}

// Parse decodes a feed document. Items that cannot be fully interpreted are kept with
// whatever fields could be read, so one broken item never fails the whole feed.
func (p *FeedParserImpl) Parse(data []byte) (*Feed, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperror.Parse("parse feed", ErrEmptyFeedDocument)
	}

	// gofeed parsers hold no state worth sharing, so each call gets its own.
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Parse("parse feed", err)
	}

	feed := &Feed{
		Title:       strings.TrimSpace(parsed.Title),
		Author:      feedAuthor(parsed),
		Description: strings.TrimSpace(parsed.Description),
		Link:        parsed.Link,
		ImageURL:    feedImageURL(parsed),
		Episodes:    make([]*Episode, 0, len(parsed.Items)),
	}

	for i, item := range parsed.Items {
		if item == nil {
			continue
		}

		feed.Episodes = append(feed.Episodes, convertItem(i+1, item))
	}

	return feed, nil
}

func convertItem(position int, item *gofeed.Item) *Episode {
	episode := &Episode{
		Position:    position,
		Title:       strings.TrimSpace(item.Title),
		Description: itemDescription(item),
		GUID:        strings.TrimSpace(item.GUID),
		Link:        item.Link,
		Author:      itemAuthor(item),
		Categories:  utils.Map(item.Categories, strings.TrimSpace),
	}

	episode.PublishedAt, episode.PublishedRaw = itemPublishDate(item)
	episode.EnclosureURL, episode.EnclosureType, episode.EnclosureLength = itemEnclosure(item)

	if item.Image != nil {
		episode.ImageURL = item.Image.URL
	}

	if item.ITunesExt != nil {
		episode.Duration = strings.TrimSpace(item.ITunesExt.Duration)
		episode.EpisodeNumber = strings.TrimSpace(item.ITunesExt.Episode)

		if episode.ImageURL == "" {
			episode.ImageURL = item.ITunesExt.Image
		}
	}

	return episode
}

// itemPublishDate returns the parsed publish date and the raw text it came from.
// The updated date is used when the item has no publish date at all.
func itemPublishDate(item *gofeed.Item) (*time.Time, string) {
	raw, parsed := strings.TrimSpace(item.Published), item.PublishedParsed
	if raw == "" && parsed == nil {
		raw, parsed = strings.TrimSpace(item.Updated), item.UpdatedParsed
	}

	if parsed != nil {
		value := parsed.UTC()

		return &value, raw
	}

	if raw == "" {
		return nil, ""
	}

	for _, layout := range fallbackDateLayouts {
		value, err := time.Parse(layout, raw)
		if err == nil {
			value = value.UTC()

			return &value, raw
		}
	}

	return nil, raw
}

// itemEnclosure returns the first enclosure with a URL, falling back to media:content.
func itemEnclosure(item *gofeed.Item) (string, string, int64) {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}

		enclosureURL := strings.TrimSpace(enclosure.URL)
		if enclosureURL == "" {
			continue
		}

		return enclosureURL, strings.TrimSpace(enclosure.Type), parseLength(enclosure.Length)
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return "", "", 0
	}

	contents := media["content"]
	for _, group := range media["group"] {
		contents = append(contents, group.Children["content"]...)
	}

	return firstMediaContent(contents)
}

func firstMediaContent(contents []ext.Extension) (string, string, int64) {
	for _, content := range contents {
		contentURL := strings.TrimSpace(content.Attrs["url"])
		if contentURL == "" {
			continue
		}

		return contentURL, strings.TrimSpace(content.Attrs["type"]), parseLength(content.Attrs["fileSize"])
	}

	return "", "", 0
}

// parseLength reads a declared byte size. Garbage and negative values mean unknown.
func parseLength(value string) int64 {
	length, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || length < 0 {
		return 0
	}

	return length
}

func itemDescription(item *gofeed.Item) string {
	if description := strings.TrimSpace(item.Description); description != "" {
		return description
	}

	if content := strings.TrimSpace(item.Content); content != "" {
		return content
	}

	if item.ITunesExt != nil {
		return strings.TrimSpace(item.ITunesExt.Summary)
	}

	return ""
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}

	if item.ITunesExt != nil {
		return strings.TrimSpace(item.ITunesExt.Author)
	}

	return ""
}

func feedAuthor(feed *gofeed.Feed) string {
	if feed.Author != nil && strings.TrimSpace(feed.Author.Name) != "" {
		return strings.TrimSpace(feed.Author.Name)
	}

	if feed.ITunesExt != nil {
		return strings.TrimSpace(feed.ITunesExt.Author)
	}

	return ""
}

func feedImageURL(feed *gofeed.Feed) string {
	if feed.Image != nil && feed.Image.URL != "" {
		return feed.Image.URL
	}

	if feed.ITunesExt != nil {
		return feed.ITunesExt.Image
	}

	return ""
}
