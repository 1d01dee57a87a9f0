// Package export renders chat sessions into portable documents. Stored
// message content is emitted as the model produced it; only the HTML format
// runs it through a markdown renderer.
package export

import (
	"fmt"
	"io"

	"github.com/calegann/chatpanel/internal/models"
)

// Exporter defines the interface for all export formats.
type Exporter interface {
	Export(chat models.ChatSession, w io.Writer) error
	Extension() string
	ContentType() string
}

// NewExporter creates a new exporter based on format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return MarkdownExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	case "html":
		return HTMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, html)", format)
	}
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "User"
	case models.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}
