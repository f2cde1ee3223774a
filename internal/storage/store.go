package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	ticketsBucket = []byte("tickets")
	metaBucket    = []byte("metadata")

	syncMetaKey = []byte("sync")
)

// ErrTicketNotFound is returned by GetTicket when no cached ticket has the id.
var ErrTicketNotFound = errors.New("ticket not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ticketsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ticketKey keeps bbolt's byte ordering equal to the backend order.
func ticketKey(seq int) []byte {
	return []byte(fmt.Sprintf("%08d", seq))
}

// ReplaceTickets swaps the whole cached set in a single transaction. Readers
// see either the old or the new list, never a mix.
func (s *Store) ReplaceTickets(tickets []Ticket, meta SyncMeta) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(ticketsBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(ticketsBucket)
		if err != nil {
			return err
		}
		for i, t := range tickets {
			data, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if err := b.Put(ticketKey(i), data); err != nil {
				return err
			}
		}

		meta.Count = len(tickets)
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(syncMetaKey, data)
	})
}

// GetTickets returns the cached tickets in the order they were stored.
func (s *Store) GetTickets() ([]Ticket, error) {
	tickets := []Ticket{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ticketsBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			var t Ticket
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			tickets = append(tickets, t)
			return nil
		})
	})
	return tickets, err
}

// GetTicket looks up a cached ticket by id, ignoring case.
func (s *Store) GetTicket(id string) (*Ticket, error) {
	var found *Ticket
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ticketsBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			if found != nil {
				return nil
			}
			var t Ticket
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if strings.EqualFold(t.ID, id) {
				found = &t
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrTicketNotFound)
	}
	return found, nil
}

// GetSyncMeta returns the metadata of the last successful sync. A zero value
// means the cache has never been filled.
func (s *Store) GetSyncMeta() (SyncMeta, error) {
	var meta SyncMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(syncMetaKey)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &meta)
	})
	return meta, err
}
