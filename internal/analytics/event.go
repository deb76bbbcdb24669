package analytics

import "time"

const (
	TopicURLCreated  = "url.created"
	TopicURLAccessed = "url.accessed"
)

// URLCreatedEvent is emitted when a short URL is issued.
type URLCreatedEvent struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"originalUrl"`
	URLHash     string     `json:"urlHash,omitempty"`
	Strategy    string     `json:"strategy"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	ClientIP    string     `json:"clientIp"`
	UserAgent   string     `json:"userAgent"`
}

// URLAccessedEvent is emitted for every resolve attempt, including misses.
// Outcome is one of "redirect", "not_found" or "expired".
type URLAccessedEvent struct {
	Code       string    `json:"code"`
	Outcome    string    `json:"outcome"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
}
