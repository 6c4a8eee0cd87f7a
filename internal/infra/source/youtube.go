package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"digestly/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// videoID returns the video id of a YouTube link, or "" for anything else.
func videoID(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if !youtubeHosts[host] {
		return ""
	}

	var id string
	path := strings.Trim(u.Path, "/")
	switch {
	case host == "youtu.be":
		id = path
	case path == "watch":
		id = u.Query().Get("v")
	default:
		for _, prefix := range []string{"shorts/", "embed/", "live/", "v/"} {
			if strings.HasPrefix(path, prefix) {
				id = strings.TrimPrefix(path, prefix)
				break
			}
		}
	}
	if i := strings.IndexByte(id, '/'); i >= 0 {
		id = id[:i]
	}
	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

type videoMetadata struct {
	Title       string
	Channel     string
	Description string
	Keywords    string
}

// FetchVideo downloads a watch page and returns its metadata as fallback material.
func (f *Fetcher) FetchVideo(ctx context.Context, rawURL string) (entity.SourceText, error) {
	p, err := f.download(ctx, rawURL)
	if err != nil {
		return entity.SourceText{}, err
	}
	meta, err := extractVideoMetadata(p.body)
	if err != nil {
		return entity.SourceText{}, err
	}
	return entity.NewSourceText(meta.String(), entity.OriginMetadata), nil
}

func extractVideoMetadata(body []byte) (videoMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return videoMetadata{}, fmt.Errorf("parse watch page: %w", err)
	}

	meta := func(selectors ...string) string {
		for _, sel := range selectors {
			if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
				return v
			}
		}
		return ""
	}

	m := videoMetadata{
		Title:       meta(`meta[property="og:title"]`, `meta[name="title"]`),
		Channel:     meta(`span[itemprop="author"] link[itemprop="name"]`, `link[itemprop="name"]`, `meta[name="author"]`),
		Description: meta(`meta[property="og:description"]`, `meta[name="description"]`),
		Keywords:    meta(`meta[name="keywords"]`),
	}
	if m.Title == "" {
		m.Title = strings.TrimSuffix(strings.TrimSpace(doc.Find("title").First().Text()), " - YouTube")
	}
	if m.Title == "" && m.Description == "" {
		return videoMetadata{}, fmt.Errorf("%w: watch page has no title or description", ErrNoContent)
	}
	return m, nil
}

// String renders the metadata as labelled lines, skipping empty fields.
func (m videoMetadata) String() string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	line("Title", m.Title)
	line("Channel", m.Channel)
	line("Description", m.Description)
	line("Keywords", m.Keywords)
	return b.String()
}
