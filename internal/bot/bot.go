package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/logger"
)

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api    *tgbotapi.BotAPI
	config *BotConfig
	client *http.Client
	log    *logger.Logger
	wg     sync.WaitGroup
}

// New authorizes against the Bot API. A nil config uses DefaultConfig.
func New(token string, config *BotConfig, log *logger.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	if config == nil {
		config = DefaultConfig()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	log = log.With("component", "bot")
	log.Info("Authorized on account", "username", api.Self.UserName)

	return &Bot{
		api:    api,
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}, nil
}

// Run receives updates until ctx is cancelled, handling each one in its
// own goroutine, and waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context, d *Dispatcher) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, d, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, d *Dispatcher, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, d, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, d, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, d *Dispatcher, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	chatID := message.Chat.ID
	req := b.request(chatID, message.From)

	var replies []Reply
	switch {
	case message.IsCommand():
		req.Args = strings.Fields(message.CommandArguments())
		b.typing(chatID)
		replies = d.HandleCommand(ctx, message.Command(), req)

	case len(message.Photo) > 0:
		// the last size is the largest
		photo := message.Photo[len(message.Photo)-1]
		url, err := b.api.GetFileDirectURL(photo.FileID)
		if err != nil {
			b.log.Error("Failed to resolve photo", "telegram_id", req.TelegramID, "error", err)
			replies = []Reply{text(msgGenericError)}
			break
		}
		replies = d.HandlePhoto(ctx, req, url, photo.FileSize)

	case message.Document != nil:
		replies = b.handleDocument(ctx, d, req, message.Document)

	case message.Text != "":
		req.Text = message.Text
		b.typing(chatID)
		replies = d.HandleText(ctx, req)
	}

	b.sendAll(chatID, replies)
}

func (b *Bot) handleDocument(ctx context.Context, d *Dispatcher, req *Request, doc *tgbotapi.Document) []Reply {
	return d.HandleDocument(ctx, req, doc.FileName, doc.FileSize, func() ([]byte, error) {
		return b.download(ctx, doc.FileID)
	})
}

// download fetches a file from Telegram's file storage
func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, int64(b.config.MaxDocumentSize)+1))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, d *Dispatcher, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("Failed to answer callback", "error", err)
	}
	if callback.Message == nil {
		return
	}

	chatID := callback.Message.Chat.ID
	req := b.request(chatID, callback.From)

	var replies []Reply
	switch {
	case strings.HasPrefix(callback.Data, quizCallbackPrefix):
		// drop the buttons so a question is answered once
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID,
			tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
		if _, err := b.api.Request(edit); err != nil {
			b.log.Debug("Failed to clear quiz keyboard", "error", err)
		}
		replies = d.HandleQuizAnswer(ctx, req, strings.TrimPrefix(callback.Data, quizCallbackPrefix))

	case strings.HasPrefix(callback.Data, menuCallbackPrefix):
		replies = d.HandleCommand(ctx, strings.TrimPrefix(callback.Data, menuCallbackPrefix), req)

	default:
		b.log.Info("Button callback", "data", callback.Data)
	}

	b.sendAll(chatID, replies)
}

func (b *Bot) request(chatID int64, from *tgbotapi.User) *Request {
	return &Request{
		Sender: Sender{
			TelegramID: from.ID,
			Username:   from.UserName,
			FirstName:  from.FirstName,
			LastName:   from.LastName,
		},
		Progress: func(r Reply) { b.send(chatID, r) },
	}
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("Failed to send chat action", "error", err)
	}
}

func (b *Bot) sendAll(chatID int64, replies []Reply) {
	for _, r := range replies {
		b.send(chatID, r)
	}
}

// send delivers one reply. Model-generated text often breaks Markdown, so
// a rejected Markdown message is resent as plain text.
func (b *Bot) send(chatID int64, r Reply) error {
	if len(r.Photo) > 0 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "upscaled.png", Bytes: r.Photo})
		photo.Caption = r.Text
		_, err := b.api.Send(photo)
		if err != nil {
			b.log.Error("Failed to send photo", "chat_id", chatID, "error", err)
		}
		return err
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = r.ParseMode
	if len(r.Keyboard) > 0 {
		msg.ReplyMarkup = createKeyboard(r.Keyboard)
	}

	_, err := b.api.Send(msg)
	if err != nil && msg.ParseMode != "" {
		b.log.Debug("Markdown rejected, resending as plain text", "chat_id", chatID, "error", err)
		msg.ParseMode = ""
		_, err = b.api.Send(msg)
	}
	if err != nil {
		b.log.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
	return err
}

// SendReminder implements the scheduler.Notifier interface. For private
// chats the chat id equals the user's telegram id.
func (b *Bot) SendReminder(ctx context.Context, telegramID int64, message string) error {
	return b.send(telegramID, markdown("⏰ *Hatırlatıcı*\n\n"+message))
}
