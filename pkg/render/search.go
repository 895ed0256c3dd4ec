package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	md "github.com/zhaopengme/dwtrbot/pkg/markdown"
)

const NothingFoundText = "😇 Nothing is found. Try something else."

// GetCommand is the command line a search result button carries.
func GetCommand(ap api.AudioPlay) string {
	return "/get " + ap.ID.String()
}

func searchEntry(num int, ap api.AudioPlay) string {
	lines := []string{fmt.Sprintf("%d. %s", num, md.Bold(ap.Title))}
	if w := WrittenBy(ap.Writers); w != "" {
		lines = append(lines, w)
	}
	if s := Starring(ap.Cast); s != "" {
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}

// SearchMessage lists results with one numbered pick button per entry.
func SearchMessage(r api.SearchAudioPlaysResponse) bot.Message {
	if len(r.AudioPlays) == 0 {
		return bot.TextMessage(NothingFoundText)
	}

	entries := make([]string, 0, len(r.AudioPlays))
	buttons := make([]bot.Button, 0, len(r.AudioPlays))
	for i, ap := range r.AudioPlays {
		num := i + 1
		entries = append(entries, searchEntry(num, ap))
		buttons = append(buttons, bot.Button{
			Label: strconv.Itoa(num),
			Data:  GetCommand(ap),
		})
	}

	return bot.Message{
		Text:    strings.Join(entries, "\n\n"),
		Buttons: buttons,
	}
}
