package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zhaopengme/dwtrbot/pkg/api"
	"github.com/zhaopengme/dwtrbot/pkg/bot"
	md "github.com/zhaopengme/dwtrbot/pkg/markdown"
)

// SeriesLine returns "<series> <season>.<number>" with whichever of season
// and number are known, or "" when the play is not part of a series.
func SeriesLine(ap api.AudioPlay) string {
	if ap.Series == nil {
		return ""
	}
	var parts []string
	if ap.SeriesSeason != nil {
		parts = append(parts, strconv.Itoa(*ap.SeriesSeason))
	}
	if ap.SeriesNumber != nil {
		parts = append(parts, strconv.Itoa(*ap.SeriesNumber))
	}
	if len(parts) == 0 {
		return ap.Series.Name
	}
	return ap.Series.Name + " " + strings.Join(parts, ".")
}

func ReleasedLine(ap api.AudioPlay) string {
	return md.Italic("Released: " + ap.ReleaseDate.Format())
}

// CardMessage is the headline message of an audio play: cover, title and
// credits. cover may be nil.
func CardMessage(ap api.AudioPlay, cover []byte) bot.Message {
	var lines []string
	for _, l := range []string{SeriesLine(ap), WrittenBy(ap.Writers), Starring(ap.Cast), ReleasedLine(ap)} {
		if l != "" {
			lines = append(lines, l)
		}
	}

	msg := bot.Message{
		Text: md.H1(ap.Title) + "\n\n" + strings.Join(lines, "\n"),
	}
	if len(cover) > 0 {
		msg.Image = &bot.Image{Data: cover}
	}
	return msg
}

// SortCast orders main cast first, keeping the credited order otherwise.
func SortCast(cast []api.CastMember) []api.CastMember {
	sorted := make([]api.CastMember, len(cast))
	copy(sorted, cast)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Main && !sorted[j].Main
	})
	return sorted
}

func castLine(c api.CastMember) string {
	if len(c.Roles) == 0 {
		return md.Bold(c.Actor.Name)
	}
	return md.Bold(c.Actor.Name) + " (" + strings.Join(c.Roles, " / ") + ")"
}

func section(title string, lines []string) string {
	return md.H2(title) + "\n" + strings.Join(lines, "\n")
}

// DetailsMessage holds synopsis, cast and links. ok is false when there is
// nothing to show. location is the self-hosted URI, "" when unknown.
func DetailsMessage(ap api.AudioPlay, location string) (bot.Message, bool) {
	var sections []string

	if synopsis := strings.TrimSpace(ap.Synopsis); synopsis != "" {
		sections = append(sections, section("Synopsis", strings.Split(synopsis, "\n")))
	}

	if len(ap.Cast) > 0 {
		var lines []string
		for _, c := range SortCast(ap.Cast) {
			lines = append(lines, castLine(c))
		}
		sections = append(sections, section("Cast", lines))
	}

	var links []string
	for _, r := range ap.ExternalResources {
		links = append(links, string(r.Type)+": "+md.Link("link", r.Link))
	}
	if location != "" {
		links = append(links, "self-hosted: "+md.Link("link", location))
	}
	if len(links) > 0 {
		sections = append(sections, section("Links", links))
	}

	if len(sections) == 0 {
		return bot.Message{}, false
	}
	return bot.TextMessage(strings.Join(sections, "\n"+md.HorizontalRule+"\n")), true
}
