package domain

import "time"

// RequestStatus is the terminal outcome of one download request.
type RequestStatus string

const (
	RequestStarted   RequestStatus = "started"
	RequestCompleted RequestStatus = "completed"
	RequestFailed    RequestStatus = "failed"
)

// RequestKind distinguishes merged video downloads from audio-only ones.
type RequestKind string

const (
	KindVideo RequestKind = "video"
	KindAudio RequestKind = "audio"
)

// RequestRecord is the history row kept for each download request. History
// is observability only; the live session state lives in the session store.
type RequestRecord struct {
	SessionID   string        `json:"session_id" gorm:"primaryKey"`
	URL         string        `json:"url" gorm:"not null"`
	Kind        RequestKind   `json:"kind" gorm:"not null"`
	Quality     int           `json:"quality"`
	Status      RequestStatus `json:"status" gorm:"not null;index"`
	ErrorCode   string        `json:"error_code,omitempty"`
	SizeBytes   int64         `json:"size_bytes,omitempty"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewRequestRecord creates a history row in the started state.
func NewRequestRecord(sessionID, url string, kind RequestKind, quality int) *RequestRecord {
	return &RequestRecord{
		SessionID: sessionID,
		URL:       url,
		Kind:      kind,
		Quality:   quality,
		Status:    RequestStarted,
		CreatedAt: time.Now(),
	}
}

// MarkCompleted records a successful delivery and the artifact size.
func (r *RequestRecord) MarkCompleted(sizeBytes int64) {
	r.Status = RequestCompleted
	r.SizeBytes = sizeBytes
	now := time.Now()
	r.CompletedAt = &now
}

// MarkFailed records the stable error code the client received.
func (r *RequestRecord) MarkFailed(code string) {
	r.Status = RequestFailed
	r.ErrorCode = code
	now := time.Now()
	r.CompletedAt = &now
}

// HistoryStats summarizes the request history.
type HistoryStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// HistoryRepository persists request history.
type HistoryRepository interface {
	// Create inserts a new request record.
	Create(record *RequestRecord) error

	// Update persists changes to an existing record.
	Update(record *RequestRecord) error

	// FindBySessionID finds one record by session ID.
	FindBySessionID(sessionID string) (*RequestRecord, error)

	// FindRecent returns the most recent records, newest first.
	FindRecent(limit int) ([]*RequestRecord, error)

	// GetStats returns aggregate history statistics.
	GetStats() (*HistoryStats, error)
}
