package dto

// PersonResponse is the admin-facing view of a gallery entry.
type PersonResponse struct {
	PersonID  string `json:"person_id"`
	Name      string `json:"name,omitempty"`
	Count     int    `json:"count"`
	Recap     string `json:"recap,omitempty"`
	Socials   string `json:"socials,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type UpdatePersonRequest struct {
	Name    *string `json:"name,omitempty"`
	Socials *string `json:"socials,omitempty"`
}

// AddFaceRequest names an existing gallery entry by PersonID. No admin API
// route decodes it.
type AddFaceRequest struct {
	PersonID string `json:"person_id,omitempty"`
}

type SearchResult struct {
	PersonID string  `json:"person_id"`
	Name     string  `json:"name,omitempty"`
	Score    float32 `json:"score"`
}

type SummaryResponse struct {
	ID        string `json:"id"`
	PersonID  string `json:"person_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type TodoResponse struct {
	ID             string  `json:"id"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	PersonID       string  `json:"person_id,omitempty"`
	ConversationID string  `json:"conversation_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	CompletedAt    *string `json:"completed_at,omitempty"`
}
