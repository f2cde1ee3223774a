package search

import "github.com/pders01/ytspot/internal/storage"

// Searcher defines the minimal ranking API used by the selection controller
// and the CLI.
type Searcher interface {
	Rank(tickets []storage.Ticket, query string) []storage.Ticket
}

// Stats describes one ranking pass. Total is the input size, Matched the
// number of tickets that survived scoring and Returned the size after the
// presentation limit.
type Stats struct {
	Query    string
	Total    int
	Matched  int
	Returned int
}

// Observer is notified after every ranking pass. It must not retain or
// mutate the tickets.
type Observer func(Stats)

// RankFunc adapts a plain ranking function to Searcher.
type RankFunc func(tickets []storage.Ticket, query string) []storage.Ticket

func (f RankFunc) Rank(tickets []storage.Ticket, query string) []storage.Ticket {
	return f(tickets, query)
}
