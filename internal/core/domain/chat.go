package domain

import "time"

// MessageRole identifies the author of a chat message.
type MessageRole string

// Chat message roles.
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Citation points an answer back at a retrieved passage.
type Citation struct {
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// ChatMessage is one entry of a user's append-only conversation log.
type ChatMessage struct {
	ID        string
	UserID    string
	Role      MessageRole
	Content   string
	Sources   []Citation
	CreatedAt time.Time
}

// DocumentRecord records that a user uploaded a file belonging to a batch.
type DocumentRecord struct {
	UserID     string
	Filename   string
	Key        CacheKey
	UploadedAt time.Time
}

// Answer is the result of asking a question against a session's index.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieved passages, most relevant first.
	Sources RetrievalResult

	// Context is the assembled prompt context handed to the generator.
	Context string
}

// Citations converts the answer sources into chat log citations.
func (a Answer) Citations() []Citation {
	out := make([]Citation, len(a.Sources))
	for i, s := range a.Sources {
		out[i] = Citation{
			Source:  s.Chunk.Metadata.Source,
			Page:    s.Chunk.Metadata.Page,
			Content: s.Chunk.Content,
		}
	}
	return out
}
