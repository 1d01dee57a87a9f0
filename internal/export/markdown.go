package export

import (
	"fmt"
	"io"
	"time"

	"github.com/calegann/chatpanel/internal/models"
)

// MarkdownExporter exports sessions as Markdown transcripts. Message content
// is written verbatim: assistant replies already are markdown, and escaping
// them would mangle code blocks.
type MarkdownExporter struct{}

// Export writes a session to w in Markdown format.
func (MarkdownExporter) Export(chat models.ChatSession, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", chat.Title)

	if !chat.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", chat.CreatedAt.Format(time.RFC1123))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(chat.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range chat.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format("15:04:05"))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", roleLabel(msg.Role), timestamp, msg.Content)

		if i < len(chat.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// Extension returns the file extension for this format.
func (MarkdownExporter) Extension() string {
	return "md"
}

// ContentType returns the media type served for this format.
func (MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}
