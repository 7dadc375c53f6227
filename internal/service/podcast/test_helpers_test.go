package podcast

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/config"
)

// testItem describes one <item> of a generated feed.
type testItem struct {
	title         string
	pubDate       string
	enclosurePath string
	enclosureType string
}

// buildRSS renders an RSS document. Enclosure paths are resolved against baseURL.
func buildRSS(title, baseURL string, items ...testItem) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">`)
	sb.WriteString("<channel><title>" + title + "</title><itunes:author>Test Author</itunes:author>")

	for _, item := range items {
		sb.WriteString("<item>")

		if item.title != "" {
			sb.WriteString("<title>" + item.title + "</title>")
		}

		if item.pubDate != "" {
			sb.WriteString("<pubDate>" + item.pubDate + "</pubDate>")
		}

		if item.enclosurePath != "" {
			enclosureType := item.enclosureType
			if enclosureType == "" {
				enclosureType = "audio/mpeg"
			}

			sb.WriteString(fmt.Sprintf(`<enclosure url="%s%s" type="%s" length="0"/>`,
				baseURL, item.enclosurePath, enclosureType))
		}

		sb.WriteString("</item>")
	}

	sb.WriteString("</channel></rss>")

	return sb.String()
}

// testServer serves a feed and a fixed set of enclosures. Unknown paths return 404.
type testServer struct {
	*httptest.Server

	files map[string][]byte
	feed  string
}

func newTestFeedServer(t *testing.T, files map[string][]byte, items ...testItem) *testServer {
	t.Helper()

	ts := &testServer{files: files}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(ts.feed))
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		content, ok := ts.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(content)
	})

	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	ts.feed = buildRSS("Test Podcast", ts.URL, items...)

	return ts
}

func (ts *testServer) feedURL() string {
	return ts.URL + "/feed.xml"
}

func newTestConfig(t *testing.T, overrides ...func(*config.Config)) *config.Config {
	t.Helper()

	cfg := &config.Config{
		OutputPath:              t.TempDir(),
		Threads:                 1,
		EpisodeFilenameTemplate: config.DefaultEpisodeFilenameTemplate,
		PodcastFolderTemplate:   config.DefaultPodcastFolderTemplate,
		MaxFilenameLength:       config.DefaultMaxFilenameLength,
		ParsedMetadataFormat:    config.MetadataFormatJSON,
	}

	for _, override := range overrides {
		override(cfg)
	}

	return cfg
}

func newTestService(cfg *config.Config, client feed.Client) Service {
	ctx := context.Background()

	return NewService(
		cfg,
		client,
		NewFeedParser(),
		NewFilenameResolver(NewTemplateManager(ctx, cfg), int(cfg.MaxFilenameLength)),
		NewMetadataWriter(cfg.ParsedMetadataFormat),
		NewTagProcessor(),
	)
}

// listFiles returns the sorted base names of regular files under dir.
func listFiles(t *testing.T, dir string) []string {
	t.Helper()

	var names []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			names = append(names, filepath.Base(path))
		}

		return nil
	})
	require.NoError(t, err)

	sort.Strings(names)

	return names
}
