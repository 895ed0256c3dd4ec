package commands

import (
	"strings"

	md "github.com/zhaopengme/dwtrbot/pkg/markdown"
)

const (
	EmptyMessageText     = "Empty messages are not allowed."
	UnknownCommandText   = "Unknown command."
	LoginInvalidArgsText = "Invalid arguments, two arguments are expected: username and password."
	LoginSuccessText     = "Success!"
	NoTokenText          = "No token is found."
	QueryExpectedText    = "😁 Query was expected as parameter."
	UUIDExpectedText     = "UUID was expected."
)

var startText = strings.Join([]string{
	md.H1("dwtr bot"),

	"Helps you search audio plays, just type:\n" +
		md.Code("/search whatever you want to find"),

	"Audio plays are being searched by title and synopsis. " +
		"So if you want to quickly find an audio play, just type " +
		"its title, but please be aware that only a small fraction " +
		"of them has been added. More will come.",

	"Right now we only store original titles and synopsis. Localized " +
		"versions will be added some time later.",

	"So type to start searching:\n" + md.Code("/search doctor who"),
}, "\n\n")
