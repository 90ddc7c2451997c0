package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/orgball2608/channel-archiver/internal/domain"
)

// maxMessageRunes stays under the 4096 character limit of a bot message.
const maxMessageRunes = 4000

var markdownV2 = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`, "~", `\~`, "`", "\\`",
	">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// EscapeMarkdownV2 escapes every character reserved by the MarkdownV2 parse mode.
func EscapeMarkdownV2(s string) string {
	return markdownV2.Replace(s)
}

// FormatNumber renders n with comma thousands separators: 1234567 -> "1,234,567".
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func status(r *domain.Report) string {
	if r.Failed > 0 {
		return "finished with failures"
	}
	return "finished"
}

// FormatReport renders a run report as a MarkdownV2 message.
func FormatReport(r *domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s\n", EscapeMarkdownV2(r.Operation), EscapeMarkdownV2(status(r)))

	elapsed := time.Duration(0)
	if !r.Finished.IsZero() {
		elapsed = r.Finished.Sub(r.Started).Round(time.Second)
	}
	line := fmt.Sprintf("%s succeeded, %s skipped, %s failed, %s items in %s rounds (%s)",
		FormatNumber(r.Succeeded), FormatNumber(r.Skipped), FormatNumber(r.Failed),
		FormatNumber(r.Items), FormatNumber(r.Rounds), elapsed)
	b.WriteString(EscapeMarkdownV2(line))

	if len(r.Failures) == 0 {
		return b.String()
	}

	b.WriteString("\n\n*Failures*")
	for i, f := range r.Failures {
		reason := "unknown error"
		if f.Err != nil {
			reason = f.Err.Error()
		}
		entry := "\n" + EscapeMarkdownV2(fmt.Sprintf("- %s: %s", f.Key, reason))
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(entry) > maxMessageRunes {
			fmt.Fprintf(&b, "\n%s", EscapeMarkdownV2(fmt.Sprintf("... and %d more", len(r.Failures)-i)))
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}
