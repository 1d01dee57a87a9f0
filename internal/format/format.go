// Package format turns raw model output into display HTML through a fixed,
// ordered list of pattern substitutions. It is deliberately not a markdown
// engine: the rules are the small ad hoc subset the panel UI understands, and
// the whole accumulated text is re-rendered from scratch on every streamed
// fragment, so the pipeline stays cheap and stateless.
package format

import "regexp"

type step struct {
	pattern *regexp.Regexp
	repl    string
}

// steps run in order over the entire input. The order is load-bearing:
// language-tagged fences must run before generic fences (the generic pattern
// would swallow the language tag into the code body), bold before italic (the
// italic pattern would split bold markers), and heading runs from six hashes
// down to one (a shorter rule would partially consume a longer run).
var steps = []step{
	{regexp.MustCompile(`(?s)<think>(.*?)</think>`), `<blockquote class="thinking">$1</blockquote>`},
	{regexp.MustCompile("(?s)```(\\w+)\\n(.*?)```"), `<pre><code class="language-$1">$2</code></pre>`},
	{regexp.MustCompile("(?s)```(.*?)```"), `<pre><code>$1</code></pre>`},
	{regexp.MustCompile("`([^`]+)`"), `<code>$1</code>`},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), `<strong>$1</strong>`},
	{regexp.MustCompile(`\*([^*]+)\*`), `<em>$1</em>`},
	{regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), `<a href="$2">$1</a>`},
	{regexp.MustCompile(`(?m)^###### (.+)$`), `<h6>$1</h6>`},
	{regexp.MustCompile(`(?m)^##### (.+)$`), `<h5>$1</h5>`},
	{regexp.MustCompile(`(?m)^#### (.+)$`), `<h4>$1</h4>`},
	{regexp.MustCompile(`(?m)^### (.+)$`), `<h3>$1</h3>`},
	{regexp.MustCompile(`(?m)^## (.+)$`), `<h2>$1</h2>`},
	{regexp.MustCompile(`(?m)^# (.+)$`), `<h1>$1</h1>`},
	{regexp.MustCompile(`(?m)^[-*+] (.+)$`), `<li>$1</li>`},
	{regexp.MustCompile(`(?m)^\d+\. (.+)$`), `<li>$1</li>`},
	{regexp.MustCompile(`\n{2,}`), `</p><p>`},
	{regexp.MustCompile(`\n`), `<br>`},
}

// Format renders raw model text as display HTML. It is pure and total: the
// same input always yields the same output and there is no error outcome.
// List items are emitted as bare <li> elements with no surrounding container,
// matching what the panel stylesheet expects.
func Format(raw string) string {
	out := raw
	for _, s := range steps {
		out = s.pattern.ReplaceAllString(out, s.repl)
	}
	return "<p>" + out + "</p>"
}
