package tracker

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

	"golang.org/x/sync/errgroup"

	"github.com/pders01/ytspot/internal/config"
	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/storage"
	"github.com/pders01/ytspot/internal/validation"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultPageSize  = 5000
	maxErrorBodySize = 1000

	issueFields   = "idReadable,summary,customFields(name,value(name))"
	projectFields = "id,name,shortName,archived"
	userFields    = "id,name,email"
)

// User is the account the token belongs to.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client talks to a YouTrack-compatible REST API.
type Client struct {
	baseURL       string
	token         string
	userAgent     string
	pageSize      int
	maxConcurrent int
	http          *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a client from the tracker and sync sections of cfg.
func NewClient(cfg *config.Config, token string, opts ...Option) (*Client, error) {
	if cfg.Tracker.BaseURL == "" || token == "" {
		return nil, ErrNotConfigured
	}
	baseURL, err := validation.NewBaseURLValidator().ValidateAndNormalize(cfg.Tracker.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Sync.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.Sync.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxConcurrent := cfg.Sync.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	c := &Client{
		baseURL:       baseURL,
		token:         token,
		userAgent:     cfg.Sync.UserAgent,
		pageSize:      pageSize,
		maxConcurrent: maxConcurrent,
		http:          &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ValidateConnection checks that the base URL and token are accepted.
func (c *Client) ValidateConnection(ctx context.Context) error {
	return c.get(ctx, "/api/users/me", nil, nil)
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/users/me", url.Values{"fields": {userFields}}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Projects lists the projects visible to the token, archived ones included.
func (c *Client) Projects(ctx context.Context) ([]storage.Project, error) {
	var projects []storage.Project
	if err := c.get(ctx, "/api/admin/projects", url.Values{"fields": {projectFields}}, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []storage.Project{}
	}
	return projects, nil
}

// FetchProjectTickets returns up to the configured page size of tickets for
// one project, in backend order.
func (c *Client) FetchProjectTickets(ctx context.Context, project string) ([]storage.Ticket, error) {
	if err := validation.ValidateProjectKey(project); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {"project: " + project},
		"fields": {issueFields},
		"$top":   {strconv.Itoa(c.pageSize)},
	}

	var issues []issueDTO
	if err := c.get(ctx, "/api/issues", params, &issues); err != nil {
		return nil, err
	}

	tickets := make([]storage.Ticket, 0, len(issues))
	for _, issue := range issues {
		if issue.IDReadable == "" {
			continue
		}
		tickets = append(tickets, issue.toTicket(c.baseURL))
	}
	debuglog.WithFields(map[string]any{"project": project, "count": len(tickets)}).Debugf("fetched project tickets")
	return tickets, nil
}

// FetchTickets fetches every project concurrently and concatenates the
// results in the order the projects were given. The first failure cancels
// the remaining requests.
func (c *Client) FetchTickets(ctx context.Context, projects []string) ([]storage.Ticket, error) {
	if len(projects) == 0 {
		return nil, ErrNoProjects
	}

	results := make([][]storage.Ticket, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for i, project := range projects {
		g.Go(func() error {
			tickets, err := c.FetchProjectTickets(gctx, project)
			if err != nil {
				return fmt.Errorf("project %s: %w", project, err)
			}
			results[i] = tickets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]storage.Ticket, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		debuglog.Errorf("tracker: invalid request URL %s: %v", apiURL, err)
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		debuglog.Errorf("tracker: request to %s failed: %v", apiURL, err)
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		debuglog.WithFields(map[string]any{
			"status": resp.StatusCode,
			"url":    apiURL,
			"body":   strings.TrimSpace(string(body)),
		}).Errorf("tracker: unexpected status")
		if resp.StatusCode == http.StatusTooManyRequests {
			return rateLimitError(resp.Header)
		}
		return errorForStatus(resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		debuglog.Errorf("tracker: decoding %s: %v", apiURL, err)
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
