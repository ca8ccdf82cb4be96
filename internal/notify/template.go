package notify

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Variables are the substitution values available to notification templates.
// Title and Channel come from untrusted upstream metadata and are
// markdown-escaped on interpolation; the template shell itself is rendered
// untouched.
type Variables struct {
	Title     string
	URL       string
	Channel   string
	TypeLabel string
	Schedule  *time.Time
}

// Operator templates use mustache-style tags: {{name}} interpolates the
// escaped value, {{{name}}} interpolates it raw. Unknown names render empty.
var tagPattern = regexp.MustCompile(`\{\{\{\s*(\w+)\s*\}\}\}|\{\{\s*(\w+)\s*\}\}`)

// Render substitutes the variables into the template.
func Render(template string, vars Variables) string {
	return tagPattern.ReplaceAllStringFunc(template, func(tag string) string {
		raw := strings.HasPrefix(tag, "{{{")
		name := strings.Trim(tag, "{} \t")
		value, escapable := vars.lookup(name)
		if escapable && !raw {
			value = EscapeMarkdown(value)
		}
		return value
	})
}

// lookup returns the value for a tag name and whether it is upstream text
// that needs escaping.
func (v Variables) lookup(name string) (value string, escapable bool) {
	switch name {
	case "title":
		return v.Title, true
	case "channel":
		return v.Channel, true
	case "url":
		return v.URL, false
	case "type":
		return v.TypeLabel, false
	case "timestamp":
		if v.Schedule == nil {
			return "", false
		}
		return strconv.FormatInt(v.Schedule.Unix(), 10), false
	}
	return "", false
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`|`, `\|`,
	`>`, `\>`,
)

// EscapeMarkdown neutralizes Discord markdown in upstream-sourced text.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
