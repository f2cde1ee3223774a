package tracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/ytspot/internal/config"
)

const testToken = "perm:test-token"

const agvIssues = `[
  {"idReadable": "AGV-918", "summary": "Export dashboard", "customFields": [
    {"name": "Type", "value": {"name": "Feature"}},
    {"name": "Priority", "value": {"name": "Major"}},
    {"name": "Sprints", "value": [{"name": "Sprint 22"}, {"name": "Sprint 23"}]},
    {"name": "Assignee", "value": {"name": "Someone"}}
  ]},
  {"idReadable": "AGV-920", "summary": "Fix login", "customFields": [
    {"name": "Type", "value": null},
    {"name": "Priority", "value": {"name": "Critical"}},
    {"name": "Sprints", "value": []},
    {"name": "Estimation", "value": 3}
  ]},
  {"idReadable": "", "summary": "broken record"}
]`

const devIssues = `[{"idReadable": "DEV-3", "summary": "Rotate keys", "customFields": [
  {"name": "Sprint", "value": {"name": "Sprint 7"}}
]}]`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.TestConfig()
	cfg.Tracker.BaseURL = server.URL + "/"
	client, err := NewClient(cfg, testToken)
	require.NoError(t, err)
	return server, client
}

func TestNewClient(t *testing.T) {
	cfg := config.TestConfig()

	_, err := NewClient(cfg, "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Tracker.BaseURL = ""
	_, err = NewClient(cfg, testToken)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Tracker.BaseURL = "ftp://example.org"
	_, err = NewClient(cfg, testToken)
	assert.Error(t, err)

	cfg.Tracker.BaseURL = "youtrack.example.org/"
	client, err := NewClient(cfg, testToken)
	require.NoError(t, err)
	assert.Equal(t, "https://youtrack.example.org", client.BaseURL())
	assert.Equal(t, cfg.Sync.PageSize, client.pageSize)
	assert.Equal(t, cfg.Sync.MaxConcurrent, client.maxConcurrent)

	cfg.Sync.PageSize = 0
	cfg.Sync.MaxConcurrent = 0
	cfg.Sync.HTTPTimeout = 0
	client, err = NewClient(cfg, testToken, WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, client.pageSize)
	assert.Equal(t, 1, client.maxConcurrent)
	assert.Equal(t, time.Second, client.http.Timeout)
}

func TestValidateConnection(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "ytspot-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"id":"1-1"}`))
	})

	assert.NoError(t, client.ValidateConnection(context.Background()))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
		{http.StatusForbidden, ErrConnection},
		{http.StatusBadRequest, ErrConnection},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			err := client.ValidateConnection(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.NotContains(t, err.Error(), testToken)
		})
	}
}

func TestRateLimited(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	err := client.ValidateConnection(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "30s")
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"missing", "", defaultRetryAfter},
		{"seconds", "120", 2 * time.Minute},
		{"garbage", "soon", defaultRetryAfter},
		{"past date", "Mon, 02 Jan 2006 15:04:05 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, retryAfter(h))
		})
	}

	future := http.Header{}
	future.Set("Retry-After", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	got := retryAfter(future)
	assert.InDelta(t, float64(time.Hour), float64(got), float64(5*time.Second))
}

func TestConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := config.TestConfig()
	cfg.Tracker.BaseURL = server.URL
	server.Close()

	client, err := NewClient(cfg, testToken)
	require.NoError(t, err)

	err = client.ValidateConnection(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
}

func TestCurrentUser(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id,name,email", r.URL.Query().Get("fields"))
		w.Write([]byte(`{"id":"1-2","name":"Ada","email":"ada@example.org"}`))
	})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &User{ID: "1-2", Name: "Ada", Email: "ada@example.org"}, user)
}

func TestProjects(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/projects", r.URL.Path)
		assert.Equal(t, "id,name,shortName,archived", r.URL.Query().Get("fields"))
		w.Write([]byte(`[{"id":"0-1","name":"Agave","shortName":"AGV","archived":false},
			{"id":"0-2","name":"Old","shortName":"OLD","archived":true}]`))
	})

	projects, err := client.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "AGV", projects[0].ShortName)
	assert.True(t, projects[1].Archived)
}

func TestInvalidJSON(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.Projects(context.Background())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestFetchProjectTickets(t *testing.T) {
	server, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/issues", r.URL.Path)
		assert.Equal(t, "project: AGV", q.Get("query"))
		assert.Equal(t, "idReadable,summary,customFields(name,value(name))", q.Get("fields"))
		assert.Equal(t, "100", q.Get("$top"))
		w.Write([]byte(agvIssues))
	})

	tickets, err := client.FetchProjectTickets(context.Background(), "AGV")
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	first := tickets[0]
	assert.Equal(t, "AGV-918", first.ID)
	assert.Equal(t, "Export dashboard", first.Summary)
	assert.Equal(t, "Feature", first.Type)
	assert.Equal(t, "Major", first.Priority)
	assert.Equal(t, []string{"Sprint 22", "Sprint 23"}, first.Sprints)
	assert.Equal(t, server.URL+"/issue/AGV-918", first.URL)

	second := tickets[1]
	assert.Equal(t, "", second.Type)
	assert.Equal(t, "Critical", second.Priority)
	assert.NotNil(t, second.Sprints)
	assert.Empty(t, second.Sprints)

	_, err = client.FetchProjectTickets(context.Background(), "bad key")
	assert.Error(t, err)
}

func TestFetchTicketsMergesInProjectOrder(t *testing.T) {
	var inFlight, peak int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}

		switch r.URL.Query().Get("query") {
		case "project: AGV":
			time.Sleep(30 * time.Millisecond)
			w.Write([]byte(agvIssues))
		case "project: DEV":
			w.Write([]byte(devIssues))
		default:
			w.Write([]byte(`[]`))
		}
	})

	tickets, err := client.FetchTickets(context.Background(), []string{"AGV", "DEV", "OPS"})
	require.NoError(t, err)

	ids := make([]string, len(tickets))
	for i, tk := range tickets {
		ids[i] = tk.ID
	}
	assert.Equal(t, []string{"AGV-918", "AGV-920", "DEV-3"}, ids)
	assert.Equal(t, []string{"Sprint 7"}, tickets[2].Sprints)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFetchTicketsFailure(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("query"), "DEV") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(agvIssues))
	})

	_, err := client.FetchTickets(context.Background(), []string{"AGV", "DEV"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "project DEV")

	_, err = client.FetchTickets(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoProjects)
}

func TestFetchTicketsContextCancelled(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchTickets(ctx, []string{"AGV"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTicketURL(t *testing.T) {
	assert.Equal(t, "https://yt.example.org/issue/AGV-1", TicketURL("https://yt.example.org/", "AGV-1"))
	assert.Equal(t, "https://example.org/youtrack/issue/DEV-2", TicketURL("https://example.org/youtrack", "DEV-2"))
}
