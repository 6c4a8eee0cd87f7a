package entity

import "time"

// CreationType classifies a stored creation.
type CreationType string

const (
	CreationSummary CreationType = "summary"
	CreationAnswer  CreationType = "answer"
)

// Creation is a record of something the service produced for a user:
// a summary or an answer to a follow-up question.
type Creation struct {
	ID        int64
	UserID    string
	Prompt    string
	Content   string
	Type      CreationType
	Publish   bool
	CreatedAt time.Time
}

// Validate checks the fields required for persistence.
func (c *Creation) Validate() error {
	if c.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if c.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	switch c.Type {
	case CreationSummary, CreationAnswer:
	default:
		return &ValidationError{Field: "type", Message: "type must be summary or answer"}
	}
	return nil
}
