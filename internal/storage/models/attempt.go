package models

import "time"

// Attempt represents a single probe iteration
type Attempt struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	Iteration    int       `json:"iteration"`
	Success      bool      `json:"success"`
	ConnectMS    *float64  `json:"connect_ms,omitempty"` // NULL if connect failed
	ErrorKind    string    `json:"error_kind,omitempty"` // timeout, refused, send, receive, error
	ErrorMessage string    `json:"error_message,omitempty"`
	ResponseHex  string    `json:"response_hex,omitempty"`
	TestedAt     time.Time `json:"tested_at"`
}
