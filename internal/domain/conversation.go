package domain

// Button is one user-actionable choice rendered under a message.
// Value buttons feed text back into the conversation; URL buttons
// deep-link out to a vendor.
type Button struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
	Style string `json:"style,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Message is one turn of the visible transcript. Messages are immutable
// once appended; insertion order is conversation order and is what
// prompt construction relies on.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Role      Role
	Text      string
	Buttons   []Button
	CreatedAt Timestamp
}

// Session is one conversation between a user and the agent.
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp
}
