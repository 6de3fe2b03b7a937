package indexer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTorznabTimeout = 15 * time.Second

// TorznabClient talks to a configured meta-search gateway (Jackett, Prowlarr
// or any Torznab-compatible aggregator). When no endpoint or API key is
// configured the client reports itself unconfigured and contributes nothing,
// which is not an error.
type TorznabClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewTorznabClient creates a gateway client. endpoint is the full Torznab api
// URL, e.g. http://localhost:9117/api/v2.0/indexers/all/results/torznab.
func NewTorznabClient(endpoint, apiKey string, timeout time.Duration) *TorznabClient {
	if timeout <= 0 {
		timeout = defaultTorznabTimeout
	}
	return &TorznabClient{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *TorznabClient) Name() string { return "torznab" }

func (c *TorznabClient) Configured() bool {
	return c.endpoint != "" && c.apiKey != ""
}

type torznabFeed struct {
	Channel struct {
		Items []torznabItem `xml:"item"`
	} `xml:"channel"`
}

type torznabItem struct {
	Title     string `xml:"title"`
	GUID      string `xml:"guid"`
	Link      string `xml:"link"`
	Comments  string `xml:"comments"`
	Size      int64  `xml:"size"`
	Enclosure struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
	Attrs []torznabAttr `xml:"attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (it torznabItem) attr(name string) string {
	for _, a := range it.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value
		}
	}
	return ""
}

// Search issues a t=search query against the gateway. Unconfigured clients
// return an empty result without touching the network.
func (c *TorznabClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	if !c.Configured() {
		return nil, nil
	}

	v := url.Values{}
	v.Set("apikey", c.apiKey)
	v.Set("t", "search")
	v.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torznab gateway returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	var feed torznabFeed
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("invalid torznab XML: %w", err)
	}

	out := make([]Candidate, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		cand := normalizeTorznabItem(it)
		if cand.HasSource() {
			out = append(out, cand)
		}
	}
	return out, nil
}

func normalizeTorznabItem(it torznabItem) Candidate {
	magnet := firstMagnet(it.attr("magneturl"), it.Link, it.GUID)

	torrentURL := acceptTorrentURL(it.Enclosure.URL)
	if torrentURL == "" {
		torrentURL = acceptTorrentURL(it.Link)
	}

	var seeders, leechers *int
	if raw := it.attr("seeders"); raw != "" {
		seeders = parseCount(raw)
	}
	if raw := it.attr("peers"); raw != "" {
		if peers, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			leech := peers
			if seeders != nil && peers >= *seeders {
				leech = peers - *seeders
			}
			leechers = intPtr(leech)
		}
	}

	return Candidate{
		Name:       it.Title,
		Magnet:     magnet,
		TorrentURL: torrentURL,
		Size:       humanSize(it.Size),
		Seeders:    seeders,
		Leechers:   leechers,
		PageLink:   it.Comments,
		Source:     "torznab",
	}
}

func firstMagnet(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "magnet:?") {
			return v
		}
	}
	return ""
}
