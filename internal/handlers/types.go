package handlers

import "time"

// Strategy selects how a URL is shortened.
type Strategy string

const (
	StrategyToken Strategy = "token"
	StrategyHash  Strategy = "hash"
)

// CredentialsRequest is the request body for signup and login.
// Fields are optional at the schema level so missing values get the auth envelope.
type CredentialsRequest struct {
	Body struct {
		UserID   string `doc:"User identifier" example:"alice"   json:"user_id"  required:"false"`
		Password string `doc:"Password"        example:"s3cret!" json:"password" required:"false"`
	}
}

// AuthResponse is returned by successful signup and login.
type AuthResponse struct {
	Status int
	Body   struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `doc:"Bearer token for authenticated requests" json:"token"`
		UserID  string `json:"user_id"`
	}
}

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL           string   `doc:"The URL to shorten"                         example:"https://example.com/very/long/path" json:"url"                       required:"false"`
		ExpiresInDays *int     `doc:"Days until the link expires; none if absent" example:"7"                                json:"expires_in_days,omitempty"`
		Strategy      Strategy `doc:"token (default) or hash"                     example:"token"                            json:"strategy,omitempty"`
	}
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		Code        string     `doc:"The short code"     example:"abc123"                             json:"code"`
		ShortURL    string     `doc:"The full short URL" example:"http://localhost:8888/abc123"       json:"short_url"`
		OriginalURL string     `doc:"The original URL"   example:"https://example.com/very/long/path" json:"original_url"`
		CreatedAt   time.Time  `json:"created_at"`
		ExpiresAt   *time.Time `json:"expires_at"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// RedirectResponse is a 301 for permanent links and a 302 for expiring ones.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `header:"Location"`
	}
}

// StatsRequest is the request for a short code's counters.
type StatsRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// StatsResponse carries the analytics counters of one short code.
type StatsResponse struct {
	Body struct {
		Code        string `doc:"The short code"                       json:"code"`
		Created     int64  `doc:"Times the code was issued"            json:"created"`
		ClickCount  int64  `doc:"Successful redirects"                 json:"click_count"`
		ExpiredHits int64  `doc:"Lookups after the link expired (410)" json:"expired_hits"`
	}
}
