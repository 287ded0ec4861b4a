package miniflux

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	entriesPath     = "/v1/entries"
	defaultPageSize = 100
	maxPages        = 50
)

// Category is the upstream feed category.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Feed is the subset of upstream feed fields carried on every entry.
type Feed struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	SiteURL  string   `json:"site_url"`
	FeedURL  string   `json:"feed_url"`
	Category Category `json:"category"`
}

// Entry is an upstream entry record.
type Entry struct {
	ID          int64     `json:"id"`
	FeedID      int64     `json:"feed_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	CommentsURL string    `json:"comments_url"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	Hash        string    `json:"hash"`
	Status      string    `json:"status"`
	Starred     bool      `json:"starred"`
	ReadingTime int       `json:"reading_time"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	ChangedAt   time.Time `json:"changed_at"`
	Feed        Feed      `json:"feed"`
}

type entriesResponse struct {
	Total   int     `json:"total"`
	Entries []Entry `json:"entries"`
}

// EntryQuery narrows an entries listing. Zero times are omitted.
type EntryQuery struct {
	Status          string
	ChangedAfter    time.Time
	ChangedBefore   time.Time
	PublishedAfter  time.Time
	PublishedBefore time.Time
}

// Client reads entries from the Miniflux REST API.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	pageSize int
}

// NewClient creates a client authenticated with an API token.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    token,
		http:     httpClient,
		pageSize: defaultPageSize,
	}
}

// Entries lists every entry matching q, following pagination in
// ascending publish order.
func (c *Client) Entries(ctx context.Context, q EntryQuery) ([]Entry, error) {
	var all []Entry
	for page := 0; page < maxPages; page++ {
		params := q.values()
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("offset", strconv.Itoa(page*c.pageSize))
		params.Set("order", "published_at")
		params.Set("direction", "asc")

		var resp entriesResponse
		if err := c.get(ctx, entriesPath, params, &resp); err != nil {
			return nil, err
		}

		all = append(all, resp.Entries...)
		if len(resp.Entries) < c.pageSize || len(all) >= resp.Total {
			return all, nil
		}
	}
	return nil, fmt.Errorf("entries listing exceeded %d pages", maxPages)
}

func (q EntryQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	setUnix(v, "changed_after", q.ChangedAfter)
	setUnix(v, "changed_before", q.ChangedBefore)
	setUnix(v, "published_after", q.PublishedAfter)
	setUnix(v, "published_before", q.PublishedBefore)
	return v
}

func setUnix(v url.Values, key string, t time.Time) {
	if !t.IsZero() {
		v.Set(key, strconv.FormatInt(t.Unix(), 10))
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("miniflux error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
