package models

import (
	"net"
	"strconv"
	"time"
)

// Run represents one invocation of the probe against a target: repeat
// iterations plus the aggregate tally.
type Run struct {
	ID         string     `json:"id"` // UUID
	Host       string     `json:"host"`
	Port       int        `json:"port"`
	Mode       string     `json:"mode"` // strategy name: data, connect, raw
	Repeat     int        `json:"repeat"`
	Attempts   int        `json:"attempts"`
	Succeeded  int        `json:"succeeded"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"` // NULL while running or if interrupted
}

// Target returns host:port.
func (r *Run) Target() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// SuccessRate returns the percentage of successful attempts.
func (r *Run) SuccessRate() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Attempts) * 100
}
