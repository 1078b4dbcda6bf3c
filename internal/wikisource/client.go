// Package wikisource adapts a Confluence-like wiki REST API to the
// interfaces.WikiSource port, rate-limited per spec §4.2.
package wikisource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Client is the production WikiSource adapter.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	limiter    limiter
}

// New builds a rate-limited WikiSource client. reqsPerSec defaults to the
// spec's documented 5 req/s when zero. redisClient is optional: when
// non-nil, the rate limit is shared across every process pointed at that
// Redis instance rather than tracked per-process.
func New(baseURL, authToken string, reqsPerSec float64, redisClient *redis.Client) *Client {
	if reqsPerSec <= 0 {
		reqsPerSec = 5
	}

	var lim limiter
	if redisClient != nil {
		lim = newRedisLimiter(redisClient, "wikimind:ratelimit:wikisource", reqsPerSec)
	} else {
		lim = localLimiter{rate.NewLimiter(rate.Limit(reqsPerSec), 1)}
	}

	return &Client{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    lim,
	}
}

type listPagesResponse struct {
	Results []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Status  string `json:"status"`
		Version struct {
			Number    int    `json:"number"`
			CreatedAt string `json:"createdAt"`
		} `json:"version"`
		ParentID string `json:"parentId"`
		Links    struct {
			WebUI string `json:"webui"`
		} `json:"links"`
	} `json:"results"`
	NextPageToken string `json:"nextPageToken"`
}

// ListPages paginates a space's pages (spec §6 "Wiki source contract").
func (c *Client) ListPages(ctx context.Context, spaceKey, pageToken string) ([]interfaces.WikiSourcePage, string, error) {
	q := url.Values{"spaceKey": {spaceKey}}
	if pageToken != "" {
		q.Set("cursor", pageToken)
	}

	var parsed listPagesResponse
	if err := c.getJSON(ctx, "/content/search?"+q.Encode(), &parsed); err != nil {
		return nil, "", err
	}

	pages := make([]interfaces.WikiSourcePage, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		pages = append(pages, interfaces.WikiSourcePage{
			PageID:    r.ID,
			Title:     r.Title,
			Status:    r.Status,
			Version:   r.Version.Number,
			UpdatedAt: r.Version.CreatedAt,
			ParentID:  r.ParentID,
			WebURL:    r.Links.WebUI,
		})
	}
	return pages, parsed.NextPageToken, nil
}

type pageBodyResponse struct {
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Labels struct {
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	} `json:"metadata.labels"`
	Restrictions map[string][]string `json:"restrictions"`
	Attachments  []string            `json:"attachments"`
	History      struct {
		CreatedDate string `json:"createdDate"`
		CreatedBy   struct {
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
		} `json:"createdBy"`
	} `json:"history"`
}

// GetPageBody fetches a page's storage HTML, labels, restrictions and
// attachment metadata.
func (c *Client) GetPageBody(ctx context.Context, pageID string) (*interfaces.WikiSourceBody, error) {
	var parsed pageBodyResponse
	path := fmt.Sprintf("/content/%s?expand=body.storage,metadata.labels,restrictions,history", pageID)
	if err := c.getJSON(ctx, path, &parsed); err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(parsed.Labels.Results))
	for _, l := range parsed.Labels.Results {
		labels = append(labels, l.Name)
	}

	return &interfaces.WikiSourceBody{
		PageID:        pageID,
		HTML:          parsed.Body.Storage.Value,
		Labels:        labels,
		Restrictions:  parsed.Restrictions,
		Attachments:   parsed.Attachments,
		CreatedAt:     parsed.History.CreatedDate,
		CreatedBy:     parsed.History.CreatedBy.Email,
		CreatedByName: parsed.History.CreatedBy.DisplayName,
	}, nil
}

// getJSON issues a rate-limited GET with 429/5xx retry and exponential
// backoff (2s -> 60s, up to 5 attempts), per spec §4.2.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	const maxAttempts = 5
	backoff := 2 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == maxAttempts {
				return fmt.Errorf("wiki source request failed: %w", err)
			}
			c.sleepBackoff(ctx, &backoff)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			defer resp.Body.Close()
			return json.NewDecoder(resp.Body).Decode(target)
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			logger.Warnf(ctx, "wiki source rate limited, sleeping %v", retryAfter)
			if !c.sleep(ctx, retryAfter) {
				return ctx.Err()
			}
		case resp.StatusCode >= 500:
			resp.Body.Close()
			if attempt == maxAttempts {
				return fmt.Errorf("wiki source server error: %s", resp.Status)
			}
			c.sleepBackoff(ctx, &backoff)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("wiki source permanent failure: %s", resp.Status)
		default:
			resp.Body.Close()
			return fmt.Errorf("wiki source unexpected status: %s", resp.Status)
		}
	}
	return fmt.Errorf("wiki source request exhausted retries")
}

func (c *Client) sleepBackoff(ctx context.Context, backoff *time.Duration) {
	c.sleep(ctx, *backoff)
	*backoff *= 2
	if *backoff > 60*time.Second {
		*backoff = 60 * time.Second
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 2 * time.Second
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 2 * time.Second
}
