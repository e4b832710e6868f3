package relay

import (
	"regexp"
	"strings"
	"unicode"

	"botrelay/internal/dbmysql"
)

const ReasonMentionOnly = "mention_only"

// Verdict is computed once per message and shared by all of its delivery tasks.
type Verdict struct {
	Suppress bool
	Reason   string
	// Body is the plain text forwarded to bots, cleaned of attachment echoes.
	Body string
}

var (
	// a lone mention, optionally followed by a single file name token the
	// client posted alongside it
	mentionOnly   = regexp.MustCompile(`(?i)^\s*@[\p{L}\p{N}_.\-]+(?:\s+[^\s@]+\.(?:png|jpe?g|gif|webp|bmp|svg|heic|pdf|docx?|xlsx?|pptx?|csv|txt|rtf|odt|zip|rar|7z|tar|gz))?\s*$`)
	singleMention = regexp.MustCompile(`^@[\p{L}\p{N}_.\-]+$`)
)

// Classifier flags messages that look like bot output so they are not fed
// back to bots.
type Classifier struct {
	rules *Ruleset
}

func NewClassifier(rules *Ruleset) *Classifier {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Classifier{rules: rules}
}

func (c *Classifier) Rules() *Ruleset {
	return c.rules
}

func (c *Classifier) Classify(msg *dbmysql.Message) Verdict {
	filename := ""
	if msg.HasAttachment() {
		filename = msg.Attachment.Filename
	}
	return c.ClassifyText(msg.PlainTextBody(), msg.HasAttachment(), filename)
}

// ClassifyText runs the rules on a plain-text body. filename only matters
// when hasAttachment is set.
func (c *Classifier) ClassifyText(body string, hasAttachment bool, filename string) Verdict {
	if !hasAttachment && mentionOnly.MatchString(body) {
		return Verdict{Suppress: true, Reason: ReasonMentionOnly}
	}

	if name, ok := c.rules.Match(body); ok {
		return Verdict{Suppress: true, Reason: name}
	}

	if hasAttachment {
		body = stripFilename(body, filename)
		if singleMention.MatchString(body) {
			body = ""
		}
	}
	return Verdict{Body: body}
}

func stripFilename(body, filename string) string {
	filename = strings.TrimSpace(filename)
	if filename != "" {
		// whole tokens only; adjacent copies share a separator, hence the loop
		re := regexp.MustCompile(`(?i)(^|\s+)` + regexp.QuoteMeta(filename) + `(\s+|$)`)
		for {
			next := re.ReplaceAllString(body, " ")
			if next == body {
				break
			}
			body = next
		}
	}
	return strings.TrimFunc(body, unicode.IsSpace)
}
