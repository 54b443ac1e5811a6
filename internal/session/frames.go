package session

import "github.com/gosuda/reviewd/internal/domain"

// Frame kinds multiplexed onto one session channel, JSON-framed one per
// event. Field names are part of the wire contract with the frontend.

type initFrame struct {
	SessionID string           `json:"sessionId"`
	Type      string           `json:"type"`
	Progress  *domain.Progress `json:"progress"`
}

type progressFrame struct {
	Type       string             `json:"type"`
	Progress   *domain.Progress   `json:"progress"`
	Checkpoint *domain.Checkpoint `json:"checkpoint"`
}

type logFrame struct {
	Type string `json:"type"`
	Log  string `json:"log"`
}

type reviewFrame struct {
	Type   string `json:"type"`
	Review string `json:"review"`
}

type doneFrame struct {
	Type string `json:"type"`
	Done bool   `json:"done"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
