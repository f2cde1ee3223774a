package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/ytspot/internal/debuglog"
	"github.com/pders01/ytspot/internal/storage"
)

// TicketSource fetches the current tickets of a set of projects.
type TicketSource interface {
	FetchTickets(ctx context.Context, projects []string) ([]storage.Ticket, error)
}

// Result describes one sync.
type Result struct {
	Tickets []storage.Ticket
	Meta    storage.SyncMeta
	// Skipped is set when the cache was fresh enough and no request was made.
	Skipped bool
}

// Syncer refreshes the local ticket cache from the tracker. Concurrent calls
// are serialized.
type Syncer struct {
	source   TicketSource
	store    *storage.Store
	projects []string
	now      func() time.Time
	mu       sync.Mutex
}

func NewSyncer(source TicketSource, store *storage.Store, projects []string) *Syncer {
	return &Syncer{
		source:   source,
		store:    store,
		projects: append([]string(nil), projects...),
		now:      time.Now,
	}
}

// Sync fetches all configured projects and replaces the cached set. On
// failure the cache is left untouched.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync(ctx)
}

// SyncIfStale syncs only when the last successful sync is older than maxAge.
// Otherwise it returns the cached tickets with Skipped set.
func (s *Syncer) SyncIfStale(ctx context.Context, maxAge time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.store.GetSyncMeta()
	if err != nil {
		return nil, fmt.Errorf("reading sync metadata: %w", err)
	}
	if !meta.LastSync.IsZero() && s.now().Sub(meta.LastSync) < maxAge {
		tickets, err := s.store.GetTickets()
		if err != nil {
			return nil, fmt.Errorf("reading cached tickets: %w", err)
		}
		return &Result{Tickets: tickets, Meta: meta, Skipped: true}, nil
	}
	return s.sync(ctx)
}

func (s *Syncer) sync(ctx context.Context) (*Result, error) {
	if len(s.projects) == 0 {
		return nil, ErrNoProjects
	}

	started := s.now()
	tickets, err := s.source.FetchTickets(ctx, s.projects)
	if err != nil {
		debuglog.Warnf("sync failed: %v", err)
		return nil, err
	}

	meta := storage.SyncMeta{
		LastSync: s.now().UTC(),
		Projects: s.projects,
	}
	if err := s.store.ReplaceTickets(tickets, meta); err != nil {
		return nil, fmt.Errorf("saving tickets: %w", err)
	}
	meta.Count = len(tickets)

	debuglog.WithFields(map[string]any{
		"count":    len(tickets),
		"projects": len(s.projects),
		"took":     s.now().Sub(started).Round(time.Millisecond),
	}).Infof("sync complete")

	return &Result{Tickets: tickets, Meta: meta}, nil
}
