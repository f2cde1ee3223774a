package tracker

import (
	"encoding/json"
	"strings"

	"github.com/pders01/ytspot/internal/storage"
)

type issueDTO struct {
	IDReadable   string           `json:"idReadable"`
	Summary      string           `json:"summary"`
	CustomFields []customFieldDTO `json:"customFields"`
}

type customFieldDTO struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type namedValue struct {
	Name string `json:"name"`
}

func (i issueDTO) toTicket(baseURL string) storage.Ticket {
	t := storage.Ticket{
		ID:      i.IDReadable,
		Summary: i.Summary,
		Sprints: []string{},
		URL:     TicketURL(baseURL, i.IDReadable),
	}
	for _, f := range i.CustomFields {
		switch f.Name {
		case "Type":
			t.Type = singleName(f.Value)
		case "Priority":
			t.Priority = singleName(f.Value)
		case "Sprints", "Sprint":
			t.Sprints = append(t.Sprints, names(f.Value)...)
		}
	}
	return t
}

// TicketURL returns the browser URL of a ticket.
func TicketURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/issue/" + id
}

// singleName reads {"name": ...}; anything else, null included, yields "".
func singleName(raw json.RawMessage) string {
	var v namedValue
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v.Name
}

// names reads a list of {"name": ...} or a single one.
func names(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []namedValue
	if err := json.Unmarshal(raw, &list); err != nil {
		if n := singleName(raw); n != "" {
			return []string{n}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v.Name != "" {
			out = append(out, v.Name)
		}
	}
	return out
}
