package selection

import (
	"github.com/pders01/ytspot/internal/search"
	"github.com/pders01/ytspot/internal/storage"
)

// Controller keeps one highlighted row consistent with a result list that is
// recomputed on every query or backing-data change. It is owned by a single
// event loop and is not safe for concurrent use.
type Controller struct {
	ranker  search.Searcher
	actions Actions
	effects Effects

	query   string
	tickets []storage.Ticket
	items   []storage.Ticket
	index   int
}

// New creates a controller with an empty query and no tickets. A nil ranker
// falls back to search.Rank; nil sinks discard their notifications.
func New(ranker search.Searcher, actions Actions, effects Effects) *Controller {
	if ranker == nil {
		ranker = search.RankFunc(search.Rank)
	}
	if actions == nil {
		actions = nopActions{}
	}
	if effects == nil {
		effects = EffectFuncs{}
	}
	return &Controller{
		ranker:  ranker,
		actions: actions,
		effects: effects,
		items:   []storage.Ticket{},
	}
}

// SetQuery replaces the query and recomputes the list. The container is
// scrolled to the top and the selection lands on the best match.
func (c *Controller) SetQuery(q string) {
	c.query = q
	c.replace()
	c.effects.ScrollToTop()
	c.scrollSelected()
}

// SetTickets swaps the backing ticket set, typically after a refresh, and
// recomputes the list against the current query.
func (c *Controller) SetTickets(tickets []storage.Ticket) {
	c.tickets = tickets
	c.replace()
	c.scrollSelected()
}

// NavigateUp moves the selection one row up, stopping at the first row.
func (c *Controller) NavigateUp() {
	if len(c.items) == 0 || c.index == 0 {
		return
	}
	c.index--
	c.scrollSelected()
}

// NavigateDown moves the selection one row down, stopping at the last row.
func (c *Controller) NavigateDown() {
	if c.index >= len(c.items)-1 {
		return
	}
	c.index++
	c.scrollSelected()
}

// Confirm dispatches the primary action (copy link) or, when alternate is
// set, the secondary action (open in browser) for the selected ticket and
// then requests dismissal. It does nothing when the list is empty.
func (c *Controller) Confirm(alternate bool) {
	t, ok := c.Selected()
	if !ok {
		return
	}
	if alternate {
		c.actions.OpenURL(t)
	} else {
		c.actions.CopyLink(t)
	}
	c.actions.Dismiss()
}

// Cancel clears a non-empty query. With the query already empty it requests
// dismissal instead.
func (c *Controller) Cancel() {
	if c.query != "" {
		c.SetQuery("")
		return
	}
	c.actions.Dismiss()
}

func (c *Controller) Query() string { return c.query }

func (c *Controller) Index() int { return c.index }

// Items returns the current ordered list. Callers must not modify it.
func (c *Controller) Items() []storage.Ticket { return c.items }

func (c *Controller) Len() int { return len(c.items) }

// Selected returns the highlighted ticket, or false when the list is empty.
func (c *Controller) Selected() (storage.Ticket, bool) {
	if len(c.items) == 0 {
		return storage.Ticket{}, false
	}
	return c.items[c.index], true
}

func (c *Controller) replace() {
	items := c.ranker.Rank(c.tickets, c.query)
	if items == nil {
		items = []storage.Ticket{}
	}
	c.items = items
	c.index = 0
}

func (c *Controller) scrollSelected() {
	if len(c.items) == 0 {
		return
	}
	c.effects.ScrollIntoView(c.index)
}
