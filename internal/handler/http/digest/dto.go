// Package digest provides HTTP handlers for summarization, follow-up
// questions and the per-caller creation history.
package digest

import (
	"time"

	"digestly/internal/domain/entity"
)

type summarizeRequest struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Origin string `json:"origin"`
	Detail string `json:"detail"`
	// Publish shares the resulting summary in the published listing.
	Publish bool `json:"publish"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// CreationDTO is the JSON form of a stored summary or answer.
type CreationDTO struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"prompt"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Publish   bool      `json:"publish"`
	CreatedAt time.Time `json:"created_at"`
}

type creationsResponse struct {
	Creations []CreationDTO `json:"creations"`
}

func toCreationDTO(c *entity.Creation) CreationDTO {
	return CreationDTO{
		ID:        c.ID,
		Prompt:    c.Prompt,
		Content:   c.Content,
		Type:      string(c.Type),
		Publish:   c.Publish,
		CreatedAt: c.CreatedAt,
	}
}
