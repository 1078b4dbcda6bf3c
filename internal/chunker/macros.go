package chunker

import "regexp"

// preCleanMacros replaces Confluence-style structured macros with readable
// substitutes before goquery parses document structure, grounded on
// html_chunker.py's _preprocess_confluence_macros.
func preCleanMacros(markup string) string {
	markup = tocMacro.ReplaceAllString(markup, "")
	markup = codeMacro.ReplaceAllStringFunc(markup, func(m string) string {
		body := extractRichTextBody(m)
		return "<pre><code>" + body + "</code></pre>"
	})
	markup = calloutMacro.ReplaceAllStringFunc(markup, func(m string) string {
		prefix := calloutPrefix(m)
		body := extractRichTextBody(m)
		return "<p>" + prefix + " " + body + "</p>"
	})
	return markup
}

var (
	tocMacro     = regexp.MustCompile(`(?is)<ac:structured-macro[^>]*ac:name="toc"[^>]*>.*?</ac:structured-macro>`)
	codeMacro    = regexp.MustCompile(`(?is)<ac:structured-macro[^>]*ac:name="code"[^>]*>.*?</ac:structured-macro>`)
	calloutMacro = regexp.MustCompile(`(?is)<ac:structured-macro[^>]*ac:name="(info|warning|note|tip|panel)"[^>]*>.*?</ac:structured-macro>`)
	richTextBody = regexp.MustCompile(`(?is)<ac:rich-text-body>(.*?)</ac:rich-text-body>`)
	macroName    = regexp.MustCompile(`(?is)ac:name="(\w+)"`)
	innerTags    = regexp.MustCompile(`(?is)<[^>]+>`)
)

func extractRichTextBody(macro string) string {
	if m := richTextBody.FindStringSubmatch(macro); len(m) == 2 {
		return innerTags.ReplaceAllString(m[1], " ")
	}
	return innerTags.ReplaceAllString(macro, " ")
}

func calloutPrefix(macro string) string {
	name := "note"
	if m := macroName.FindStringSubmatch(macro); len(m) == 2 {
		name = m[1]
	}
	switch name {
	case "warning":
		return "⚠️"
	case "tip":
		return "💡"
	case "panel":
		return "📌"
	default:
		return "ℹ️"
	}
}
