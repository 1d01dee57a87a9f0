package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/calegann/chatpanel/internal/models"
)

// markdown renders assistant replies for the standalone HTML document. Raw
// HTML inside message content stays escaped; transcripts are untrusted model
// output.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		goldmarkhtml.WithHardWraps(),
	),
)

// HTMLExporter exports sessions as self-contained HTML pages with embedded
// CSS. Assistant messages go through a full markdown renderer with syntax
// highlighting, unlike the live panel formatter which favors speed over
// fidelity.
type HTMLExporter struct{}

// Export writes a session to w as a standalone HTML page.
func (HTMLExporter) Export(chat models.ChatSession, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(chat.Title))
	if !chat.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "<meta name=\"date\" content=\"%s\">\n", chat.CreatedAt.Format(time.RFC3339))
	}
	sb.WriteString(exportCSS)
	sb.WriteString("</head>\n<body>\n<div class=\"container\">\n")

	fmt.Fprintf(&sb, "<header>\n<h1>%s</h1>\n", html.EscapeString(chat.Title))
	fmt.Fprintf(&sb, "<p class=\"meta\">%d messages</p>\n</header>\n", len(chat.Messages))

	sb.WriteString("<main>\n")
	for _, msg := range chat.Messages {
		if err := renderMessage(&sb, msg); err != nil {
			return err
		}
	}
	sb.WriteString("</main>\n</div>\n</body>\n</html>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Extension returns the file extension for this format.
func (HTMLExporter) Extension() string {
	return "html"
}

// ContentType returns the media type served for this format.
func (HTMLExporter) ContentType() string {
	return "text/html; charset=utf-8"
}

func renderMessage(sb *strings.Builder, msg models.ChatMessage) error {
	fmt.Fprintf(sb, "<div class=\"message %s\">\n", html.EscapeString(string(msg.Role)))

	fmt.Fprintf(sb, "<div class=\"message-header\"><span class=\"role\">%s</span>", roleLabel(msg.Role))
	if !msg.Timestamp.IsZero() {
		fmt.Fprintf(sb, "<span class=\"timestamp\">%s</span>", msg.Timestamp.Format("15:04:05"))
	}
	sb.WriteString("</div>\n")

	sb.WriteString("<div class=\"message-content\">\n")
	switch msg.Role {
	case models.RoleAssistant:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(msg.Content), &buf); err != nil {
			return fmt.Errorf("error rendering message: %w", err)
		}
		sb.Write(buf.Bytes())
	default:
		fmt.Fprintf(sb, "<p>%s</p>\n", html.EscapeString(msg.Content))
	}
	sb.WriteString("</div>\n</div>\n")

	return nil
}

const exportCSS = `<style>
* { margin: 0; padding: 0; box-sizing: border-box; }

body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
  font-size: 16px;
  line-height: 1.6;
  color: #24292e;
  background: #f6f8fa;
  padding: 20px;
}

.container {
  max-width: 860px;
  margin: 0 auto;
  background: #ffffff;
  border: 1px solid #e1e4e8;
  border-radius: 8px;
  overflow: hidden;
}

header {
  padding: 24px 32px;
  border-bottom: 2px solid #e1e4e8;
}

header .meta {
  font-size: 14px;
  color: #6a737d;
}

main { padding: 24px 32px; }

.message {
  margin-bottom: 20px;
  padding: 16px;
  border-radius: 6px;
  border-left: 4px solid transparent;
}

.message.user {
  background: #f6f8fa;
  border-left-color: #0366d6;
}

.message.assistant {
  background: #ffffff;
  border-left-color: #22863a;
}

.message-header {
  display: flex;
  justify-content: space-between;
  margin-bottom: 8px;
  font-size: 14px;
}

.role { font-weight: 600; }

.timestamp {
  color: #6a737d;
  font-family: "SF Mono", Monaco, monospace;
  font-size: 13px;
}

.message-content p { margin-bottom: 10px; }
.message-content p:last-child { margin-bottom: 0; }

.message-content pre {
  margin: 12px 0;
  padding: 12px;
  border-radius: 6px;
  overflow-x: auto;
  font-size: 14px;
}

.message-content code {
  font-family: "SF Mono", Monaco, monospace;
  font-size: 14px;
}

@media print {
  body { padding: 0; }
  .container { border: none; }
  .message { page-break-inside: avoid; }
}
</style>
`
