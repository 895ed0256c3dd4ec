// Package bot holds the transport-agnostic message model shared by the
// command handlers and the chat transports.
package bot

// Button is an interactive element attached to a message. Data is a
// command line that is fed back to the dispatcher when the button is
// activated, exactly as if the user had typed it.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Image is either a remote URI or raw image bytes. At most one is set.
type Image struct {
	URI  string `json:"uri,omitempty"`
	Data []byte `json:"-"`
}

// Empty reports whether the image carries neither a URI nor bytes.
func (i *Image) Empty() bool {
	return i == nil || (i.URI == "" && len(i.Data) == 0)
}

// Message is an outgoing message. Renderers build it once and transports
// consume it once; it is not modified in between.
type Message struct {
	Text    string   `json:"text,omitempty"`
	Image   *Image   `json:"image,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

// TextMessage builds a text-only message.
func TextMessage(text string) Message {
	return Message{Text: text}
}

// HasButtons reports whether the message carries at least one button.
func (m Message) HasButtons() bool {
	return len(m.Buttons) > 0
}

// IncomingMessage is the argument part of a command after the command
// word has been stripped.
type IncomingMessage struct {
	Text string
}
