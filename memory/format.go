package memory

import (
	"fmt"
	"strings"

	"github.com/BaSui01/chatmem/types"
)

// Default formatting strings for the injection block. These are a textual
// convention, not structured data: DefaultIntroHistoryMessage doubles as the
// sentinel used to strip a previously injected block on re-composition.
// Content that naturally contains the intro sentence will be mis-split at
// that inner occurrence; this is a known sharp edge of the marker scheme.
const (
	// DefaultIntroHistoryMessage opens the injection block and serves as the
	// marker sentence for idempotent re-composition.
	DefaultIntroHistoryMessage = "Below are a set of relevant dialogues retrieved from potentially several memory sources:"

	// DefaultOutroHistoryMessage closes the injection block.
	DefaultOutroHistoryMessage = "This is the end of the of retrieved message dialogues."

	// DefaultSystemPreamble is used when the primary history has no leading
	// system message to splice into.
	DefaultSystemPreamble = "You are a helpful assistant."

	// SourceHeaderTemplate opens the section for the i-th (1-based) source.
	SourceHeaderTemplate = "\n=====Relevant messages from memory source %d=====\n\n"

	// SourceFooterTemplate closes the section for the i-th (1-based) source.
	SourceFooterTemplate = "\n=====End of relevant messages from memory source %d======\n\n"
)

// FormatSecondaryHistories renders non-empty secondary chat histories into a
// single injectable text block. Histories are numbered 1-based in the given
// order; empty histories produce no section. Returns "" when nothing is left
// to format.
func FormatSecondaryHistories(histories [][]types.Message) string {
	nonEmpty := histories[:0:0]
	for _, h := range histories {
		if len(h) > 0 {
			nonEmpty = append(nonEmpty, h)
		}
	}
	if len(nonEmpty) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n" + DefaultIntroHistoryMessage + "\n")
	for i, history := range nonEmpty {
		fmt.Fprintf(&b, SourceHeaderTemplate, i+1)
		for _, m := range history {
			fmt.Fprintf(&b, "\t%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
		}
		fmt.Fprintf(&b, SourceFooterTemplate, i+1)
	}
	b.WriteString(DefaultOutroHistoryMessage)
	return b.String()
}
