package channels

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/zhaopengme/dwtrbot/pkg/bot"
	"github.com/zhaopengme/dwtrbot/pkg/bus"
	"github.com/zhaopengme/dwtrbot/pkg/config"
	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

const (
	telegramTextLimit    = 4000
	telegramCaptionLimit = 1024
)

var (
	reHeaders    = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reRule       = regexp.MustCompile(`(?m)^[ \t]*(\*\*\*|---|___)[ \t]*$`)
	reBlockquote = regexp.MustCompile(`(?m)^>\s*(.*)$`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reBoldStar   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnder  = regexp.MustCompile(`__(.+?)__`)
	reItalicStar = regexp.MustCompile(`\*([^*\n]+)\*`)
	reItalic     = regexp.MustCompile(`\b_([^_]+)_\b`)
	reStrikethru = regexp.MustCompile(`~~(.+?)~~`)
	reList       = regexp.MustCompile(`(?m)^[-*]\s+`)
	reCodeBlock  = regexp.MustCompile("```[\\w]*\\n?([\\s\\S]*?)```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
)

type TelegramChannel struct {
	*BaseChannel
	bot     *telego.Bot
	botName string
}

func NewTelegramChannel(cfg config.TelegramConfig, b bus.Broker) (*TelegramChannel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	} else if os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" {
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		}))
	}

	tg, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", b, cfg.AllowFrom),
		bot:         tg,
		botName:     cfg.BotName,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	if c.botName == "" {
		if me, err := c.bot.GetMe(ctx); err == nil {
			c.botName = me.Username
		} else {
			logger.WarnCF("telegram", "Failed to resolve bot username", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	bh, err := th.NewBotHandler(c.bot, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		return c.handleMessage(ctx, &message)
	}, th.AnyMessage())

	bh.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		return c.handleCallbackQuery(ctx, query)
	}, th.AnyCallbackQueryWithMessage())

	c.setRunning(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.botName,
	})

	go func() {
		if err := bh.Start(); err != nil {
			logger.ErrorCF("telegram", "Bot handler stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	go func() {
		<-ctx.Done()
		_ = bh.Stop()
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot...")
	c.setRunning(false)
	return nil
}

// Send delivers a bot message. An image goes out as a photo, with the text
// as its caption when it fits. Buttons are attached to the last part sent.
func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return ErrNotRunning
	}

	chatID, threadID, err := parseCompositeChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	var markup *telego.InlineKeyboardMarkup
	if msg.Message.HasButtons() {
		markup = tu.InlineKeyboard(buttonGrid(msg.Message.Buttons)...)
	}

	text := msg.Message.Text
	if !msg.Message.Image.Empty() {
		caption := ""
		if utf8.RuneCountInString(text) <= telegramCaptionLimit {
			caption, text = text, ""
		}
		photoMarkup := markup
		if text != "" {
			photoMarkup = nil
		}
		if err := c.sendPhoto(ctx, chatID, threadID, msg.Message.Image, caption, photoMarkup); err != nil {
			return err
		}
	}

	if text == "" {
		if !msg.Message.Image.Empty() {
			logger.DebugCF("telegram", "Photo sent", map[string]interface{}{
				"chat_id": msg.ChatID,
			})
		}
		return nil
	}
	chunks := splitMarkdownContent(text, telegramTextLimit)

	var lastErr error
	for i, chunk := range chunks {
		tgMsg := &telego.SendMessageParams{
			ChatID:    tu.ID(chatID),
			Text:      markdownToTelegramHTML(chunk),
			ParseMode: telego.ModeHTML,
		}
		if threadID != 0 {
			tgMsg.MessageThreadID = threadID
		}
		if i == len(chunks)-1 && markup != nil {
			tgMsg.ReplyMarkup = markup
		}

		if _, err = c.bot.SendMessage(ctx, tgMsg); err != nil {
			logger.ErrorCF("telegram", "HTML parse failed or other error, falling back to plain text", map[string]interface{}{
				"error":       err.Error(),
				"chunk_index": i,
			})
			tgMsg.Text = chunk
			tgMsg.ParseMode = ""
			if _, err = c.bot.SendMessage(ctx, tgMsg); err != nil {
				lastErr = err
			}
		}
	}

	if lastErr == nil {
		logger.DebugCF("telegram", "Message sent", map[string]interface{}{
			"chat_id": msg.ChatID,
			"chunks":  len(chunks),
		})
	}
	return lastErr
}

func (c *TelegramChannel) sendPhoto(ctx context.Context, chatID int64, threadID int, img *bot.Image, caption string, markup *telego.InlineKeyboardMarkup) error {
	var photo telego.InputFile
	if len(img.Data) > 0 {
		photo = tu.File(tu.NameReader(bytes.NewReader(img.Data), "cover.jpg"))
	} else {
		photo = tu.FileFromURL(img.URI)
	}

	params := &telego.SendPhotoParams{
		ChatID: tu.ID(chatID),
		Photo:  photo,
	}
	if caption != "" {
		params.Caption = markdownToTelegramHTML(caption)
		params.ParseMode = telego.ModeHTML
	}
	if threadID != 0 {
		params.MessageThreadID = threadID
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := c.bot.SendPhoto(ctx, params); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

func (c *TelegramChannel) handleMessage(ctx context.Context, message *telego.Message) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}

	user := message.From
	if user == nil {
		return fmt.Errorf("message sender (user) is nil")
	}

	senderID := strconv.FormatInt(user.ID, 10)
	if user.Username != "" {
		senderID = senderID + "|" + user.Username
	}

	chatIDStr := telegramChatID(message.Chat.ID, message.MessageThreadID)

	content := message.Text
	if content == "" {
		content = message.Caption
	}
	content = stripBotName(content, c.botName)

	logger.DebugCF("telegram", "Received message", map[string]interface{}{
		"sender_id": senderID,
		"chat_id":   chatIDStr,
	})

	c.HandleMessage(ctx, senderID, chatIDStr, content, map[string]string{
		"message_id": strconv.Itoa(message.MessageID),
		"username":   user.Username,
	})
	return nil
}

// handleCallbackQuery forwards the pressed button's data as if the user had
// typed it.
func (c *TelegramChannel) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) error {
	if err := c.bot.AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID)); err != nil {
		logger.WarnCF("telegram", "Failed to answer callback query", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if query.Message == nil {
		return nil
	}

	senderID := strconv.FormatInt(query.From.ID, 10)
	if query.From.Username != "" {
		senderID = senderID + "|" + query.From.Username
	}
	chatIDStr := callbackChatID(query.Message)

	logger.DebugCF("telegram", "Received callback", map[string]interface{}{
		"sender_id": senderID,
		"chat_id":   chatIDStr,
		"data":      query.Data,
	})

	c.HandleMessage(ctx, senderID, chatIDStr, query.Data, map[string]string{
		"callback_id": query.ID,
		"username":    query.From.Username,
	})
	return nil
}

// telegramChatID addresses a chat, or a forum topic inside it.
func telegramChatID(chatID int64, threadID int) string {
	if threadID != 0 {
		return fmt.Sprintf("%d:%d", chatID, threadID)
	}
	return strconv.FormatInt(chatID, 10)
}

// callbackChatID resolves the chat a button was pressed in, including the
// topic when the keyboard message is still accessible.
func callbackChatID(m telego.MaybeInaccessibleMessage) string {
	if msg, ok := m.(*telego.Message); ok {
		return telegramChatID(msg.Chat.ID, msg.MessageThreadID)
	}
	return telegramChatID(m.GetChat().ID, 0)
}

// buttonGrid lays buttons out in rows of floor(sqrt(n))+1.
func buttonGrid(buttons []bot.Button) [][]telego.InlineKeyboardButton {
	if len(buttons) == 0 {
		return nil
	}
	size := int(math.Sqrt(float64(len(buttons)))) + 1

	var rows [][]telego.InlineKeyboardButton
	for start := 0; start < len(buttons); start += size {
		end := start + size
		if end > len(buttons) {
			end = len(buttons)
		}
		row := make([]telego.InlineKeyboardButton, 0, end-start)
		for _, b := range buttons[start:end] {
			row = append(row, tu.InlineKeyboardButton(b.Label).WithCallbackData(b.Data))
		}
		rows = append(rows, tu.InlineKeyboardRow(row...))
	}
	return rows
}

// stripBotName removes the "@<bot>" tag Telegram appends to commands in
// group chats, e.g. "/search@dwtrbot who" becomes "/search who".
func stripBotName(text, botName string) string {
	if botName == "" {
		return text
	}
	command, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		command, rest = text[:i], text[i:]
	}
	tag := "@" + botName
	if len(command) > len(tag) && strings.EqualFold(command[len(command)-len(tag):], tag) {
		command = command[:len(command)-len(tag)]
	}
	return command + rest
}

func parseCompositeChatID(chatIDStr string) (int64, int, error) {
	parts := strings.SplitN(chatIDStr, ":", 2)
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid chat ID format: %w", err)
	}

	var threadID int
	if len(parts) > 1 {
		threadID, err = strconv.Atoi(parts[1])
		if err != nil {
			return chatID, 0, fmt.Errorf("invalid thread ID format: %w", err)
		}
	}

	return chatID, threadID, nil
}

// markdownToTelegramHTML converts message markers to the HTML subset the
// Bot API accepts. Headers become bold lines.
func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}

	codeBlocks := extractCodeBlocks(text)
	text = codeBlocks.text

	inlineCodes := extractInlineCodes(text)
	text = inlineCodes.text

	text = reRule.ReplaceAllString(text, visibleRule)

	text = reHeaders.ReplaceAllString(text, "**$1**")

	text = reBlockquote.ReplaceAllString(text, "$1")

	text = escapeHTML(text)

	text = reLink.ReplaceAllString(text, `<a href="$2">$1</a>`)

	text = reBoldStar.ReplaceAllString(text, "<b>$1</b>")

	text = reBoldUnder.ReplaceAllString(text, "<b>$1</b>")

	text = reItalicStar.ReplaceAllString(text, "<i>$1</i>")

	text = reItalic.ReplaceAllStringFunc(text, func(s string) string {
		match := reItalic.FindStringSubmatch(s)
		if len(match) < 2 {
			return s
		}
		return "<i>" + match[1] + "</i>"
	})

	text = reStrikethru.ReplaceAllString(text, "<s>$1</s>")

	text = reList.ReplaceAllString(text, "• ")

	for i, code := range inlineCodes.codes {
		escaped := escapeHTML(code)
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00IC%d\x00", i), fmt.Sprintf("<code>%s</code>", escaped))
	}

	for i, code := range codeBlocks.codes {
		escaped := escapeHTML(code)
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00CB%d\x00", i), fmt.Sprintf("<pre><code>%s</code></pre>", escaped))
	}

	return text
}

type codeMatch struct {
	text  string
	codes []string
}

func extractCodeBlocks(text string) codeMatch {
	return extractCodes(text, reCodeBlock, "CB")
}

func extractInlineCodes(text string) codeMatch {
	return extractCodes(text, reInlineCode, "IC")
}

func extractCodes(text string, re *regexp.Regexp, tag string) codeMatch {
	matches := re.FindAllStringSubmatch(text, -1)

	codes := make([]string, 0, len(matches))
	for _, match := range matches {
		codes = append(codes, match[1])
	}

	i := 0
	text = re.ReplaceAllStringFunc(text, func(string) string {
		placeholder := fmt.Sprintf("\x00%s%d\x00", tag, i)
		i++
		return placeholder
	})

	return codeMatch{text: text, codes: codes}
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// splitMarkdownContent splits long text on line boundaries, closing and
// reopening code fences that straddle a split.
func splitMarkdownContent(text string, maxLength int) []string {
	if len(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	inCodeBlock := false
	codeBlockLang := ""

	lines := strings.Split(text, "\n")
	var currentChunk strings.Builder
	currentLen := 0

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			if inCodeBlock {
				codeBlockLang = strings.TrimPrefix(strings.TrimSpace(line), "```")
			} else {
				codeBlockLang = ""
			}
		}

		// Leave room for a closing fence.
		lineLen := len(line) + 1
		if currentLen+lineLen > maxLength-20 && currentChunk.Len() > 0 {
			if inCodeBlock {
				currentChunk.WriteString("\n```")
			}

			chunks = append(chunks, currentChunk.String())

			currentChunk.Reset()
			currentLen = 0

			if inCodeBlock {
				currentChunk.WriteString("```" + codeBlockLang + "\n")
				currentLen += len("```" + codeBlockLang + "\n")
			}
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n")
			currentLen++
		}
		currentChunk.WriteString(line)
		currentLen += len(line)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}
