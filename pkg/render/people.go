package render

import (
	"github.com/zhaopengme/dwtrbot/pkg/api"
	md "github.com/zhaopengme/dwtrbot/pkg/markdown"
)

// WrittenBy returns the "Written by ..." line, or "" without writers.
func WrittenBy(writers []api.Person) string {
	if len(writers) == 0 {
		return ""
	}
	names := make([]string, 0, len(writers))
	for _, w := range writers {
		names = append(names, w.Name)
	}
	return "Written by " + md.JoinNames(names, md.Italic)
}

// Starring returns the "Starring ..." line over the main cast, or "" when
// nobody is flagged main.
func Starring(cast []api.CastMember) string {
	var names []string
	for _, c := range cast {
		if c.Main {
			names = append(names, c.Actor.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Starring " + md.JoinNames(names, md.Italic)
}
