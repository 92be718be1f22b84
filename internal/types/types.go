package types

import (
	"time"

	"github.com/google/uuid"
)

// State is a step of a send run
type State string

const (
	StateLaunching     State = "launching"
	StateCookiesLoaded State = "cookies_loaded"
	StatePageLoaded    State = "page_loaded"
	StateInputFound    State = "input_found"
	StateSending       State = "sending"
	StateDone          State = "done"
	StateAborted       State = "aborted"
	StateFailed        State = "failed"
)

// AbortReason explains why a run stopped before sending
type AbortReason string

const (
	AbortNone         AbortReason = ""
	AbortNoCookieFile AbortReason = "no-cookie-file"
	AbortNavTimeout   AbortReason = "nav-timeout"
	AbortNoInput      AbortReason = "no-input"
	AbortCanceled     AbortReason = "canceled"
)

// Report is the status of one run against a thread
type Report struct {
	RunID       string      `json:"run_id"`
	ThreadID    string      `json:"thread_id"`
	State       State       `json:"state"`
	AbortReason AbortReason `json:"abort_reason,omitempty"`
	Total       int         `json:"total"`
	Sent        int         `json:"sent"`
	Last        string      `json:"last"`
	Error       string      `json:"error,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at,omitempty"`
}

// NewReport starts a report for threadID with a fresh run id
func NewReport(threadID string, now time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		ThreadID:  threadID,
		State:     StateLaunching,
		StartedAt: now,
	}
}

// Duration is how long the run took, or zero while it is still going
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether every queued message was sent
func (r *Report) Succeeded() bool {
	return r.State == StateDone && r.Sent == r.Total
}

// SentMessage is one message typed into the thread
type SentMessage struct {
	RunID   string    `json:"run_id"`
	Seq     int       `json:"seq"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}
