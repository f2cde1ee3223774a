package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pders01/ytspot/internal/storage"
)

// Relevance weights. Exactly one of the id weights applies per ticket, the
// most specific one that matches.
const (
	ScoreIDExact    = 1000
	ScoreIDPrefix   = 800
	ScoreIDContains = 600
	ScoreSummary    = 400
	ScoreType       = 200
	ScorePriority   = 100
	ScoreSprint     = 100
)

// Order selects how an empty query lists tickets.
type Order int

const (
	// OrderIDDesc lists newest tickets first by the numeric id suffix.
	OrderIDDesc Order = iota
	// OrderBackend keeps the order the tickets were supplied in.
	OrderBackend
)

func (o Order) String() string {
	switch o {
	case OrderIDDesc:
		return "id_desc"
	case OrderBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// ParseOrder maps a config value to an Order. Empty means OrderIDDesc.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "id_desc":
		return OrderIDDesc, nil
	case "backend":
		return OrderBackend, nil
	default:
		return OrderIDDesc, fmt.Errorf("unknown order %q (want id_desc or backend)", s)
	}
}

// Options parameterizes a Ranker.
type Options struct {
	DefaultOrder Order
	// Limit truncates the ranked list for display. Zero means no limit.
	Limit    int
	Observer Observer
}

// Ranker is a pure ranking function plus presentation options. It holds no
// state between calls and is safe for concurrent use.
type Ranker struct {
	opts Options
}

// NewRanker creates a ranker with the given options
func NewRanker(opts Options) *Ranker {
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	return &Ranker{opts: opts}
}

// Rank orders tickets for display. The input slice is never modified.
func (r *Ranker) Rank(tickets []storage.Ticket, query string) []storage.Ticket {
	q := normalize(query)
	ranked := rank(tickets, q, r.opts.DefaultOrder)
	matched := len(ranked)

	if r.opts.Limit > 0 && len(ranked) > r.opts.Limit {
		ranked = ranked[:r.opts.Limit]
	}

	if r.opts.Observer != nil {
		r.opts.Observer(Stats{
			Query:    q,
			Total:    len(tickets),
			Matched:  matched,
			Returned: len(ranked),
		})
	}
	return ranked
}

// Rank orders tickets by relevance to query. An empty or whitespace-only
// query lists every ticket newest first; otherwise only tickets with a
// positive score are returned, best first, ties in input order.
func Rank(tickets []storage.Ticket, query string) []storage.Ticket {
	return rank(tickets, normalize(query), OrderIDDesc)
}

type scoredTicket struct {
	ticket storage.Ticket
	score  int
}

func rank(tickets []storage.Ticket, q string, order Order) []storage.Ticket {
	if q == "" {
		out := make([]storage.Ticket, len(tickets))
		copy(out, tickets)
		if order == OrderIDDesc {
			sort.SliceStable(out, func(i, j int) bool {
				return NumericSuffix(out[i].ID) > NumericSuffix(out[j].ID)
			})
		}
		return out
	}

	scored := make([]scoredTicket, 0, len(tickets))
	for _, t := range tickets {
		if s := Score(t, q); s > 0 {
			scored = append(scored, scoredTicket{ticket: t, score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	out := make([]storage.Ticket, len(scored))
	for i, s := range scored {
		out[i] = s.ticket
	}
	return out
}

// Score computes the relevance of t for an already normalized query
// (trimmed, lower-cased). An empty query scores 0.
func Score(t storage.Ticket, q string) int {
	if q == "" {
		return 0
	}

	score := 0

	id := strings.ToLower(t.ID)
	switch {
	case id == q:
		score += ScoreIDExact
	case strings.HasPrefix(id, q):
		score += ScoreIDPrefix
	case strings.Contains(id, q):
		score += ScoreIDContains
	}

	if strings.Contains(strings.ToLower(t.Summary), q) {
		score += ScoreSummary
	}
	if t.Type != "" && strings.Contains(strings.ToLower(t.Type), q) {
		score += ScoreType
	}
	if t.Priority != "" && strings.Contains(strings.ToLower(t.Priority), q) {
		score += ScorePriority
	}
	for _, sprint := range t.Sprints {
		if strings.Contains(strings.ToLower(sprint), q) {
			score += ScoreSprint
			break
		}
	}

	return score
}

// NumericSuffix returns the number after the last '-' in id, or 0 when
// there is none or it is not a plain decimal number.
func NumericSuffix(id string) int {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return 0
	}
	suffix := id[i+1:]
	if suffix == "" {
		return 0
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0
	}
	return n
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
