// Package markdown emits the semantic formatting markers used by rendered
// messages. Transports translate them to their platform syntax; nothing
// here escapes for a specific platform.
package markdown

import "strings"

// HorizontalRule separates blocks of a message.
const HorizontalRule = "\n***\n"

func Bold(s string) string {
	return "**" + s + "**"
}

func Italic(s string) string {
	return "*" + s + "*"
}

// Code marks s as fixed-width.
func Code(s string) string {
	return "`" + s + "`"
}

func Link(text, target string) string {
	return "[" + text + "](" + target + ")"
}

func H1(s string) string {
	return "# " + s
}

func H2(s string) string {
	return "## " + s
}

// JoinNames joins names as "a, b & c", applying style to each part: the
// comma-joined head and the last name. An empty list yields "".
func JoinNames(names []string, style func(string) string) string {
	if len(names) == 0 {
		return ""
	}
	if style == nil {
		style = func(s string) string { return s }
	}
	last := style(names[len(names)-1])
	head := strings.Join(names[:len(names)-1], ", ")
	if head == "" {
		return last
	}
	return style(head) + " & " + last
}
