package storage

import (
	"time"
)

// Ticket is one issue-tracker item as cached locally. The launcher treats
// it as read-only.
type Ticket struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Type     string   `json:"type"`
	Priority string   `json:"priority"`
	Sprints  []string `json:"sprints"`
	URL      string   `json:"url"`
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Archived  bool   `json:"archived"`
}

type SyncMeta struct {
	LastSync time.Time `json:"last_sync"`
	Count    int       `json:"count"`
	Projects []string  `json:"projects"`
}
