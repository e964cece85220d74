// Package session persists analysis sessions so follow-up refinements can
// reuse the original resume and the previous report.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a session stays usable after creation. Expiry is
// measured from creation, not last access.
const DefaultTTL = time.Hour

// Session is one analysis conversation.
type Session struct {
	ID         string    `json:"id"`
	Input      string    `json:"input"`
	LastResult string    `json:"last_result"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is the session persistence contract. Get returns (nil, nil) for
// sessions that are absent or past their TTL.
type Store interface {
	Create(ctx context.Context, input string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id, lastResult string) error
	Delete(ctx context.Context, id string) error
}

// NewID mints a short session identifier.
func NewID() string {
	return "session_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
