package channels

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/config"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

// Section blocks accept at most 3000 characters of text.
const slackSectionLimit = 2900

var (
	reSlackItalic = regexp.MustCompile(`(^|[^*])\*([^*\n]+)\*([^*]|$)`)
	reSlackBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

type SlackChannel struct {
	*BaseChannel
	config       config.SlackConfig
	api          *slack.Client
	socketClient *socketmode.Client
	botUserID    string
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewSlackChannel(cfg config.SlackConfig, messageBus bus.Broker) (*SlackChannel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack bot_token and app_token are required")
	}

	api := slack.New(
		cfg.BotToken,
		slack.OptionAppLevelToken(cfg.AppToken),
	)

	return &SlackChannel{
		BaseChannel:  NewBaseChannel("slack", messageBus, cfg.AllowFrom),
		config:       cfg,
		api:          api,
		socketClient: socketmode.New(api),
	}, nil
}

func (c *SlackChannel) Start(ctx context.Context) error {
	logger.InfoC("slack", "Starting Slack channel (Socket Mode)")

	c.ctx, c.cancel = context.WithCancel(ctx)

	authResp, err := c.api.AuthTestContext(c.ctx)
	if err != nil {
		return fmt.Errorf("slack auth test failed: %w", err)
	}
	c.botUserID = authResp.UserID

	logger.InfoCF("slack", "Slack bot connected", map[string]interface{}{
		"bot_user_id": c.botUserID,
		"team":        authResp.Team,
	})

	go c.eventLoop()

	go func() {
		if err := c.socketClient.RunContext(c.ctx); err != nil {
			if c.ctx.Err() == nil {
				logger.ErrorCF("slack", "Socket Mode connection error", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}()

	c.setRunning(true)
	return nil
}

func (c *SlackChannel) Stop(ctx context.Context) error {
	logger.InfoC("slack", "Stopping Slack channel")

	if c.cancel != nil {
		c.cancel()
	}

	c.setRunning(false)
	return nil
}

func (c *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return ErrNotRunning
	}

	channelID, threadTS := parseSlackChatID(msg.ChatID)
	if channelID == "" {
		return fmt.Errorf("invalid slack chat ID: %s", msg.ChatID)
	}

	if img := msg.Message.Image; !img.Empty() && len(img.Data) > 0 {
		if err := c.uploadImage(ctx, channelID, threadTS, img.Data); err != nil {
			logger.WarnCF("slack", "Cover upload failed", map[string]interface{}{
				"channel_id": channelID,
				"error":      err.Error(),
			})
		}
	}

	opts := []slack.MsgOption{
		slack.MsgOptionText(markdownToSlackMrkdwn(msg.Message.Text), false),
		slack.MsgOptionBlocks(slackBlocks(msg.Message)...),
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}

	logger.DebugCF("slack", "Message sent", map[string]interface{}{
		"channel_id": channelID,
		"thread_ts":  threadTS,
	})
	return nil
}

func (c *SlackChannel) uploadImage(ctx context.Context, channelID, threadTS string, data []byte) error {
	_, err := c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:         channelID,
		ThreadTimestamp: threadTS,
		Reader:          bytes.NewReader(data),
		FileSize:        len(data),
		Filename:        "cover.jpg",
		Title:           "cover",
	})
	return err
}

func (c *SlackChannel) eventLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.socketClient.Events:
			if !ok {
				return
			}
			switch event.Type {
			case socketmode.EventTypeEventsAPI:
				c.handleEventsAPI(event)
			case socketmode.EventTypeSlashCommand:
				c.handleSlashCommand(event)
			case socketmode.EventTypeInteractive:
				c.handleInteraction(event)
			}
		}
	}
}

func (c *SlackChannel) handleEventsAPI(event socketmode.Event) {
	if event.Request != nil {
		c.socketClient.Ack(*event.Request)
	}

	eventsAPIEvent, ok := event.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}

	switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		c.handleMessageEvent(ev)
	case *slackevents.AppMentionEvent:
		c.handleAppMention(ev)
	}
}

// handleMessageEvent only answers direct messages; channel traffic reaches
// the bot through mentions and slash commands.
func (c *SlackChannel) handleMessageEvent(ev *slackevents.MessageEvent) {
	if ev.User == c.botUserID || ev.User == "" || ev.BotID != "" || ev.SubType != "" {
		return
	}
	if ev.ChannelType != "im" {
		return
	}

	chatID := slackChatID(ev.Channel, ev.ThreadTimeStamp)

	logger.DebugCF("slack", "Received message", map[string]interface{}{
		"sender_id": ev.User,
		"chat_id":   chatID,
	})

	c.HandleMessage(c.ctx, ev.User, chatID, c.stripBotMention(ev.Text), map[string]string{
		"message_ts": ev.TimeStamp,
	})
}

func (c *SlackChannel) handleAppMention(ev *slackevents.AppMentionEvent) {
	if ev.User == c.botUserID {
		return
	}

	chatID := slackChatID(ev.Channel, ev.ThreadTimeStamp)

	logger.DebugCF("slack", "Received mention", map[string]interface{}{
		"sender_id": ev.User,
		"chat_id":   chatID,
	})

	c.HandleMessage(c.ctx, ev.User, chatID, c.stripBotMention(ev.Text), map[string]string{
		"message_ts": ev.TimeStamp,
		"is_mention": "true",
	})
}

// handleSlashCommand maps "/search doctor who" to the same text a user
// would type.
func (c *SlackChannel) handleSlashCommand(event socketmode.Event) {
	cmd, ok := event.Data.(slack.SlashCommand)
	if !ok {
		return
	}

	if event.Request != nil {
		c.socketClient.Ack(*event.Request)
	}

	content := strings.TrimSpace(cmd.Command + " " + cmd.Text)

	logger.DebugCF("slack", "Slash command received", map[string]interface{}{
		"sender_id": cmd.UserID,
		"command":   cmd.Command,
	})

	c.HandleMessage(c.ctx, cmd.UserID, slackChatID(cmd.ChannelID, ""), content, map[string]string{
		"is_command": "true",
		"trigger_id": cmd.TriggerID,
	})
}

// handleInteraction forwards the value of a pressed block button.
func (c *SlackChannel) handleInteraction(event socketmode.Event) {
	if event.Request != nil {
		c.socketClient.Ack(*event.Request)
	}

	callback, ok := event.Data.(slack.InteractionCallback)
	if !ok || callback.Type != slack.InteractionTypeBlockActions {
		return
	}
	if len(callback.ActionCallback.BlockActions) == 0 {
		return
	}
	action := callback.ActionCallback.BlockActions[0]

	chatID := slackChatID(callback.Channel.ID, callback.Message.ThreadTimestamp)

	logger.DebugCF("slack", "Button pressed", map[string]interface{}{
		"sender_id": callback.User.ID,
		"action_id": action.ActionID,
	})

	c.HandleMessage(c.ctx, callback.User.ID, chatID, action.Value, map[string]string{
		"action_id": action.ActionID,
	})
}

func (c *SlackChannel) stripBotMention(text string) string {
	if c.botUserID == "" {
		return strings.TrimSpace(text)
	}
	mention := fmt.Sprintf("<@%s>", c.botUserID)
	text = strings.ReplaceAll(text, mention, "")
	return strings.TrimSpace(text)
}

// slackChatID keys a conversation by channel, or by thread when the message
// is a reply. Top-level mentions, slash commands and DMs in one channel
// share a key.
func slackChatID(channelID, threadTS string) string {
	if threadTS == "" {
		return channelID
	}
	return channelID + "/" + threadTS
}

func parseSlackChatID(chatID string) (channelID, threadTS string) {
	parts := strings.SplitN(chatID, "/", 2)
	channelID = parts[0]
	if len(parts) > 1 {
		threadTS = parts[1]
	}
	return
}

// slackBlocks lays a message out as mrkdwn sections, an optional image block
// for remote images and one actions block with the buttons.
func slackBlocks(msg bot.Message) []slack.Block {
	var blocks []slack.Block

	if text := markdownToSlackMrkdwn(msg.Text); text != "" {
		for _, chunk := range splitMarkdownContent(text, slackSectionLimit) {
			blocks = append(blocks, slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, chunk, false, false),
				nil, nil,
			))
		}
	}

	if msg.Image != nil && len(msg.Image.Data) == 0 && msg.Image.URI != "" {
		blocks = append(blocks, slack.NewImageBlock(msg.Image.URI, "cover", "", nil))
	}

	if msg.HasButtons() {
		elements := make([]slack.BlockElement, 0, len(msg.Buttons))
		for i, b := range msg.Buttons {
			elements = append(elements, slack.NewButtonBlockElement(
				fmt.Sprintf("pick_%d", i+1),
				b.Data,
				slack.NewTextBlockObject(slack.PlainTextType, b.Label, false, false),
			))
		}
		blocks = append(blocks, slack.NewActionBlock("buttons", elements...))
	}

	return blocks
}

// markdownToSlackMrkdwn converts message markers to Slack mrkdwn: headers
// and bold become *bold*, italics become _italic_, links become <url|text>.
func markdownToSlackMrkdwn(text string) string {
	if text == "" {
		return ""
	}

	codeBlocks := extractCodeBlocks(text)
	text = codeBlocks.text

	inlineCodes := extractInlineCodes(text)
	text = inlineCodes.text

	text = reRule.ReplaceAllString(text, visibleRule)
	text = reHeaders.ReplaceAllString(text, "**$1**")

	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")

	text = reLink.ReplaceAllString(text, "<$2|$1>")

	// Italics first so the single stars of converted bold are left alone.
	for reSlackItalic.MatchString(text) {
		text = reSlackItalic.ReplaceAllString(text, "${1}_${2}_${3}")
	}
	text = reSlackBold.ReplaceAllString(text, "*$1*")

	for i, code := range inlineCodes.codes {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00IC%d\x00", i), "`"+code+"`")
	}
	for i, code := range codeBlocks.codes {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00CB%d\x00", i), "```"+code+"```")
	}

	return text
}
