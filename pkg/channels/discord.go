package channels

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/config"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

const (
	sendTimeout = 10 * time.Second

	discordTextLimit     = 2000
	discordButtonsPerRow = 5
	discordMaxRows       = 5
)

type DiscordChannel struct {
	*BaseChannel
	session   *discordgo.Session
	ctx       context.Context
	botUserID string
}

func NewDiscordChannel(cfg config.DiscordConfig, b bus.Broker) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", b, cfg.AllowFrom),
		session:     session,
		ctx:         context.Background(),
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	c.ctx = ctx

	// Get bot user ID before opening session to avoid race condition
	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	c.botUserID = botUser.ID

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleInteraction)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	c.setRunning(true)

	logger.InfoCF("discord", "Discord bot connected", map[string]interface{}{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})

	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord bot")
	c.setRunning(false)

	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}

	return nil
}

// Send posts the message in one or more parts. The cover goes with the
// first part and the buttons with the last.
func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return ErrNotRunning
	}

	channelID := msg.ChatID
	if channelID == "" {
		return fmt.Errorf("channel ID is empty")
	}

	sent := 0
	for _, part := range discordMessages(msg.Message) {
		if part.Content == "" && len(part.Files) == 0 && len(part.Embeds) == 0 && len(part.Components) == 0 {
			continue
		}
		if err := c.sendPart(ctx, channelID, part); err != nil {
			return err
		}
		sent++
	}

	logger.DebugCF("discord", "Message sent", map[string]interface{}{
		"channel_id": channelID,
		"parts":      sent,
	})
	return nil
}

func (c *DiscordChannel) sendPart(ctx context.Context, channelID string, data *discordgo.MessageSend) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := c.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(sendCtx)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}

	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	// In guilds the bot only reacts to commands and mentions.
	if m.GuildID != "" && !strings.HasPrefix(strings.TrimSpace(m.Content), "/") && !c.mentioned(m.Mentions) {
		return
	}

	content := c.stripBotMention(m.Content)

	logger.DebugCF("discord", "Received message", map[string]interface{}{
		"sender_id":  m.Author.ID,
		"channel_id": m.ChannelID,
	})

	c.HandleMessage(c.ctx, m.Author.ID, m.ChannelID, content, map[string]string{
		"message_id": m.ID,
		"guild_id":   m.GuildID,
		"username":   m.Author.Username,
	})
}

// handleInteraction forwards button presses; the custom id holds the
// button data.
func (c *DiscordChannel) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logger.WarnCF("discord", "Failed to acknowledge interaction", map[string]interface{}{
			"error": err.Error(),
		})
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	data := i.MessageComponentData().CustomID

	logger.DebugCF("discord", "Button pressed", map[string]interface{}{
		"sender_id":  user.ID,
		"channel_id": i.ChannelID,
	})

	c.HandleMessage(c.ctx, user.ID, i.ChannelID, data, map[string]string{
		"interaction_id": i.ID,
		"username":       user.Username,
	})
}

func (c *DiscordChannel) mentioned(users []*discordgo.User) bool {
	for _, u := range users {
		if u != nil && u.ID == c.botUserID {
			return true
		}
	}
	return false
}

// stripBotMention removes the bot mention from the message content.
// Discord mentions have the format <@USER_ID> or <@!USER_ID> (with nickname).
func (c *DiscordChannel) stripBotMention(text string) string {
	if c.botUserID == "" {
		return strings.TrimSpace(text)
	}
	text = strings.ReplaceAll(text, fmt.Sprintf("<@%s>", c.botUserID), "")
	text = strings.ReplaceAll(text, fmt.Sprintf("<@!%s>", c.botUserID), "")
	return strings.TrimSpace(text)
}

// discordMessages splits a bot message into sendable parts.
func discordMessages(msg bot.Message) []*discordgo.MessageSend {
	var chunks []string
	if text := markdownToDiscord(msg.Text); text != "" {
		chunks = splitMarkdownContent(text, discordTextLimit)
	}
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	parts := make([]*discordgo.MessageSend, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, &discordgo.MessageSend{Content: chunk})
	}

	if img := msg.Image; !img.Empty() {
		first := parts[0]
		if len(img.Data) > 0 {
			first.Files = []*discordgo.File{{
				Name:        "cover.jpg",
				ContentType: "image/jpeg",
				Reader:      bytes.NewReader(img.Data),
			}}
		} else {
			first.Embeds = []*discordgo.MessageEmbed{{
				Image: &discordgo.MessageEmbedImage{URL: img.URI},
			}}
		}
	}

	if msg.HasButtons() {
		parts[len(parts)-1].Components = discordButtonRows(msg.Buttons)
	}
	return parts
}

func discordButtonRows(buttons []bot.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons) && len(rows) < discordMaxRows; start += discordButtonsPerRow {
		end := start + discordButtonsPerRow
		if end > len(buttons) {
			end = len(buttons)
		}
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    b.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: b.Data,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// markdownToDiscord keeps Discord's native markdown and swaps the block
// separator for a visible rule.
func markdownToDiscord(text string) string {
	return reRule.ReplaceAllString(text, visibleRule)
}
