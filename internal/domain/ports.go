package domain

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ConversationContext gives the LLM minimal context about the conversation.
type ConversationContext struct {
	SessionID SessionID
	UserID    UserID
	History   []*Message
}

// LLMClient defines how the core application interacts with an LLM service.
type LLMClient interface {
	// GenerateReply produces the next assistant message. instruction is a
	// scenario-specific system prompt; the history in convCtx is forwarded
	// as the conversation so far.
	GenerateReply(ctx context.Context, instruction string, convCtx ConversationContext) (string, error)

	// Extract runs a deterministic, JSON-producing prompt over a single
	// exchange. assistantTurn may be empty when the prompt only needs the
	// user's utterance. The raw model text is returned; callers scan it
	// for a brace-delimited object.
	Extract(ctx context.Context, system, assistantTurn, userTurn string) (string, error)
}

// MemoryStore persists the per-user preference record.
type MemoryStore interface {
	// Load returns the record for a user. Implementations return an empty
	// record (not an error) when the user has none yet.
	Load(ctx context.Context, userID UserID) (Memory, error)
	// Save merges a partial update server-side, last-write-wins per field.
	Save(ctx context.Context, userID UserID, update MemoryUpdate) error
}

// RestaurantDirectory finds candidate venues near a coordinate.
type RestaurantDirectory interface {
	// SearchByCuisine is a radius-bounded keyword search.
	SearchByCuisine(ctx context.Context, loc Location, cuisine string) ([]Candidate, error)
	// SearchNearby is distance-ranked with no cuisine filter, capped at limit.
	SearchNearby(ctx context.Context, loc Location, limit int) ([]Candidate, error)
}

// SessionStore defines session persistence.
type SessionStore interface {
	CreateSession(session *Session) error
	UpdateSession(session *Session) error
	GetSession(id SessionID) (*Session, error)
}

// MessageStore defines transcript persistence. Append-only.
type MessageStore interface {
	AppendMessage(msg *Message) error
	GetMessagesBySession(sessionID SessionID, limit int) ([]*Message, error)
}
