package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/calegann/chatpanel/internal/models"
)

// JSONExporter exports sessions as pretty-printed JSON. The document has its
// own shape rather than reusing the panel wire events: exports carry
// timestamps, which the panel protocol never does.
type JSONExporter struct{}

type jsonChat struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	Messages  []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Export writes a session to w as an indented JSON document.
func (JSONExporter) Export(chat models.ChatSession, w io.Writer) error {
	doc := jsonChat{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		Messages:  make([]jsonMessage, 0, len(chat.Messages)),
	}
	for _, msg := range chat.Messages {
		doc.Messages = append(doc.Messages, jsonMessage{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Extension returns the file extension for this format.
func (JSONExporter) Extension() string {
	return "json"
}

// ContentType returns the media type served for this format.
func (JSONExporter) ContentType() string {
	return "application/json"
}
