package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

const consoleChatID = "local"

// ConsoleChannel is a local REPL transport. Buttons of the last message are
// listed with numbers; typing "#2" presses the second one.
type ConsoleChannel struct {
	*BaseChannel
	rl       *readline.Instance
	out      io.Writer
	renderer *glamour.TermRenderer

	mu      sync.Mutex
	buttons []bot.Button
}

func NewConsoleChannel(b bus.Broker) (*ConsoleChannel, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &ConsoleChannel{
		BaseChannel: NewBaseChannel("console", b, nil),
		out:         os.Stdout,
		renderer:    renderer,
	}, nil
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dwtr> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".dwtrbot_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	c.rl = rl
	c.out = rl.Stdout()

	c.setRunning(true)
	logger.InfoC("console", "Console channel started")

	go c.readLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()
	return nil
}

func (c *ConsoleChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

func (c *ConsoleChannel) readLoop(ctx context.Context) {
	for {
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.ErrorCF("console", "Failed to read input", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		if ctx.Err() != nil {
			return
		}
		c.HandleMessage(ctx, consoleChatID, consoleChatID, c.resolveInput(line), nil)
	}
}

// resolveInput maps "#N" to the data of the Nth button of the last message.
// Anything else is passed through.
func (c *ConsoleChannel) resolveInput(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return line
	}
	n, err := strconv.Atoi(trimmed[1:])
	if err != nil {
		return line
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.buttons) {
		return line
	}
	return c.buttons[n-1].Data
}

func (c *ConsoleChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return ErrNotRunning
	}

	c.mu.Lock()
	c.buttons = msg.Message.Buttons
	c.mu.Unlock()

	if _, err := io.WriteString(c.out, c.format(msg.Message)); err != nil {
		return err
	}
	logger.DebugCF("console", "Message sent", map[string]interface{}{
		"buttons": len(msg.Message.Buttons),
	})
	return nil
}

func (c *ConsoleChannel) format(msg bot.Message) string {
	var b strings.Builder

	if img := msg.Image; !img.Empty() {
		if img.URI != "" {
			fmt.Fprintf(&b, "[image: %s]\n", img.URI)
		} else {
			fmt.Fprintf(&b, "[image: %d bytes]\n", len(img.Data))
		}
	}

	if msg.Text != "" {
		rendered, err := c.renderer.Render(msg.Text)
		if err != nil {
			rendered = msg.Text + "\n"
		}
		b.WriteString(rendered)
	}

	if msg.HasButtons() {
		labels := make([]string, 0, len(msg.Buttons))
		for i, btn := range msg.Buttons {
			labels = append(labels, fmt.Sprintf("[#%d %s]", i+1, btn.Label))
		}
		b.WriteString(strings.Join(labels, " "))
		b.WriteString("\n")
	}
	return b.String()
}
