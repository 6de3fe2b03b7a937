package indexer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultNyaaURL     = "https://nyaa.si"
	defaultNyaaTimeout = 6 * time.Second
	nyaaUserAgent      = "animestrem/1.0"
)

// NyaaClient fetches the Nyaa RSS feed for a query. Category 1_2 restricts
// results to non-raw anime releases.
type NyaaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNyaaClient creates a Nyaa RSS client. An empty baseURL selects the
// public instance; a zero timeout selects the default.
func NewNyaaClient(baseURL string, timeout time.Duration) *NyaaClient {
	if baseURL == "" {
		baseURL = defaultNyaaURL
	}
	if timeout <= 0 {
		timeout = defaultNyaaTimeout
	}
	return &NyaaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *NyaaClient) Name() string { return "nyaa" }

func (c *NyaaClient) Configured() bool { return true }

// nyaaFeed mirrors the subset of the Nyaa RSS schema we consume. The
// torrent: and nyaa: namespaced elements match by local name.
type nyaaFeed struct {
	Channel struct {
		Items []nyaaItem `xml:"item"`
	} `xml:"channel"`
}

type nyaaItem struct {
	Title     string `xml:"title"`
	Link      string `xml:"link"`
	GUID      string `xml:"guid"`
	MagnetURI string `xml:"magnetURI"`
	Size      string `xml:"size"`
	Seeders   string `xml:"seeders"`
	Leechers  string `xml:"leechers"`
	Enclosure struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
}

// Search fetches one RSS page and normalizes its items. Records without a
// usable magnet or .torrent URL are dropped.
func (c *NyaaClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	feedURL := fmt.Sprintf("%s/?page=rss&q=%s&c=1_2&f=0", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nyaaUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nyaa returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var feed nyaaFeed
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("invalid nyaa RSS: %w", err)
	}

	out := make([]Candidate, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		cand := normalizeNyaaItem(it)
		if cand.HasSource() {
			out = append(out, cand)
		}
	}
	return out, nil
}

func normalizeNyaaItem(it nyaaItem) Candidate {
	magnet := ""
	if strings.HasPrefix(it.MagnetURI, "magnet:") {
		magnet = it.MagnetURI
	}

	page := it.GUID
	if page == "" {
		page = it.Link
	}

	return Candidate{
		Name:       it.Title,
		Magnet:     magnet,
		TorrentURL: acceptTorrentURL(it.Enclosure.URL),
		Size:       strings.TrimSpace(it.Size),
		Seeders:    parseCount(it.Seeders),
		Leechers:   parseCount(it.Leechers),
		PageLink:   page,
		Source:     "nyaa",
	}
}
