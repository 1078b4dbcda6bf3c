package commands

import (
	"fmt"
	"strings"
)

// helpText renders the `<prefix>help [section]` command's ephemeral reply
// (spec §6). Sections mirror the other three commands so `help
// create-knowledge` can go straight to the one a user is stuck on.
func helpText(prefix, section string) string {
	sections := map[string]string{
		"create-knowledge": fmt.Sprintf(
			"%screate-knowledge <text>\n  Creates a single quick-fact chunk from <text> and indexes it in the background.",
			prefix),
		"create-doc": fmt.Sprintf(
			"%screate-doc\n  Opens a modal to create a full document (area, type, classification, content).",
			prefix),
		"ingest-doc": fmt.Sprintf(
			"%singest-doc <url>\n  Fetches an external URL (HTML page) and indexes it in the background.",
			prefix),
		"help": fmt.Sprintf("%shelp [section]\n  Shows this message, or detail on one command.", prefix),
	}

	if section != "" {
		if text, ok := sections[strings.ToLower(section)]; ok {
			return text
		}
		return fmt.Sprintf("No help section named %q. Try %shelp.", section, prefix)
	}

	return strings.Join([]string{
		"I can answer questions about our knowledge base, or you can use one of these commands:",
		sections["create-knowledge"],
		sections["create-doc"],
		sections["ingest-doc"],
		sections["help"],
		"",
		"On any answer, click a feedback button (Helpful / Outdated / Incorrect / Confusing) to rate it.",
	}, "\n")
}
