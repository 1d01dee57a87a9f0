package format_test

import (
	"strings"
	"testing"

	"github.com/calegann/chatpanel/internal/format"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain text",
			raw:  "hello",
			want: "<p>hello</p>",
		},
		{
			name: "empty input",
			raw:  "",
			want: "<p></p>",
		},
		{
			name: "bold then italic",
			raw:  "**bold** and *italic*",
			want: "<p><strong>bold</strong> and <em>italic</em></p>",
		},
		{
			name: "language tagged fence",
			raw:  "```python\nprint(1)\n```",
			want: `<p><pre><code class="language-python">print(1)<br></code></pre></p>`,
		},
		{
			name: "generic fence",
			raw:  "```\nplain\n```",
			want: "<p><pre><code><br>plain<br></code></pre></p>",
		},
		{
			name: "inline code",
			raw:  "run `go vet` first",
			want: "<p>run <code>go vet</code> first</p>",
		},
		{
			name: "link",
			raw:  "[docs](https://example.com)",
			want: `<p><a href="https://example.com">docs</a></p>`,
		},
		{
			name: "heading level one",
			raw:  "# Title\nbody",
			want: "<p><h1>Title</h1><br>body</p>",
		},
		{
			name: "heading level six stays whole",
			raw:  "###### deep",
			want: "<p><h6>deep</h6></p>",
		},
		{
			name: "dash list items without container",
			raw:  "- one\n- two",
			want: "<p><li>one</li><br><li>two</li></p>",
		},
		{
			name: "numbered list items",
			raw:  "1. first\n2. second",
			want: "<p><li>first</li><br><li>second</li></p>",
		},
		{
			name: "think block",
			raw:  "<think>weighing options</think>answer",
			want: `<p><blockquote class="thinking">weighing options</blockquote>answer</p>`,
		},
		{
			name: "paragraph break",
			raw:  "first\n\nsecond",
			want: "<p>first</p><p>second</p>",
		},
		{
			name: "single newline becomes break",
			raw:  "line one\nline two",
			want: "<p>line one<br>line two</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format.Format(tt.raw); got != tt.want {
				t.Errorf("Format() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatDeterministic(t *testing.T) {
	raw := "# Title\n\n**bold** with `code` and *flair*\n\n```go\nreturn\n```"
	first := format.Format(raw)
	for range 10 {
		if got := format.Format(raw); got != first {
			t.Fatalf("Format() = %v, want stable output %v", got, first)
		}
	}
}

func TestFormatBoldResolvesBeforeItalic(t *testing.T) {
	got := format.Format("**bold** and *italic*")

	strongAt := strings.Index(got, "<strong>bold</strong>")
	emAt := strings.Index(got, "<em>italic</em>")
	if strongAt == -1 || emAt == -1 {
		t.Fatalf("Format() = %v, want both strong and em markup", got)
	}
	if strongAt > emAt {
		t.Errorf("Format() = %v, want strong before em", got)
	}
	if strings.Contains(got, "*") {
		t.Errorf("Format() = %v, want no leftover asterisks", got)
	}
}

func TestFormatLanguageFenceNotGeneric(t *testing.T) {
	got := format.Format("```python\nprint(1)\n```")

	if !strings.Contains(got, `class="language-python"`) {
		t.Errorf("Format() = %v, want language-python code block", got)
	}
	if !strings.Contains(got, "print(1)") {
		t.Errorf("Format() = %v, want code body preserved", got)
	}
	if strings.Contains(got, "<pre><code>") {
		t.Errorf("Format() = %v, want no untagged code block", got)
	}
}

func TestFormatGrowingPrefixes(t *testing.T) {
	// The relay re-renders the whole accumulated buffer on every fragment, so
	// every prefix must format cleanly on its own.
	fragments := []string{"**bo", "ld**", " plus `co", "de`"}
	var buf strings.Builder
	for _, fragment := range fragments {
		buf.WriteString(fragment)
		_ = format.Format(buf.String())
	}

	if got, want := format.Format(buf.String()), "<p><strong>bold</strong> plus <code>code</code></p>"; got != want {
		t.Errorf("Format() = %v, want %v", got, want)
	}
}
