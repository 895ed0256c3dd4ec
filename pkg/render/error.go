// Package render turns API responses into bot messages.
package render

import (
	"strings"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	md "github.com/zhaopengme/dwtrbot/pkg/markdown"
)

// ErrorMessage describes a structured API error. Every handler presents
// errors through it.
func ErrorMessage(e api.ErrorResponse) bot.Message {
	lines := []string{
		"❌ " + md.Bold("Error") + "\n",
		md.Bold("Status") + " " + md.Code(e.Status.String()),
		md.Bold("Message") + " " + e.Message,
	}
	if info, ok := e.Info(); ok {
		lines = append(lines,
			md.Bold("Reason")+" "+md.Code(info.Reason),
			md.Bold("Domain")+" "+md.Code(info.Domain),
		)
	}
	return bot.TextMessage(strings.Join(lines, "\n"))
}
