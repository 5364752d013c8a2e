package telegram

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/delivery"
	"github.com/higress-group/docqa-bot/orchestrator"
)

// Asker answers a question for a session.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string, sink delivery.Sink) (orchestrator.Outcome, error)
}

// Bot routes chat updates: commands and the document button are answered directly,
// any other text goes through the question pipeline.
type Bot struct {
	api      API
	asker    Asker
	messages config.MessagesConfig
	document string

	wg sync.WaitGroup
}

func New(api API, asker Asker, cfg *config.Config) *Bot {
	return &Bot{
		api:      api,
		asker:    asker,
		messages: cfg.Messages,
		document: cfg.Render.Document,
	}
}

// Serve connects to Telegram and handles updates until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, asker Asker) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("telegram token is empty, set %s", config.EnvBotToken)
	}
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("connect telegram failed, err: %w", err)
	}
	api.Debug = cfg.Bot.Debug
	logger.Infof("telegram: authorized as @%s", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Bot.PollTimeout
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	return New(api, asker, cfg).Run(ctx, updates)
}

// Run dispatches updates until ctx is done or the channel closes, then waits for
// in-flight questions to finish.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.HandleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// HandleMessage answers a single incoming message.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.reply(chatID, b.messages.Start)
	case msg.IsCommand() && msg.Command() == "menu":
		b.reply(chatID, b.messages.Menu)
	case strings.TrimSpace(msg.Text) == b.messages.PDFButton:
		b.sendDocument(chatID)
	case msg.Text == "":
		// stickers, photos and the like carry no question
	default:
		sink := &chatSink{api: b.api, chatID: chatID}
		outcome, err := b.asker.Ask(ctx, strconv.FormatInt(chatID, 10), msg.Text, sink)
		if err != nil {
			logger.Warnf("telegram: chat %d question ended %s: %v", chatID, outcome, err)
			return
		}
		logger.Debugf("telegram: chat %d question ended %s", chatID, outcome)
	}
}

func (b *Bot) keyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(b.messages.PDFButton)))
	kb.ResizeKeyboard = true
	return kb
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = b.keyboard()
	if _, err := b.api.Send(m); err != nil {
		logger.Warnf("telegram: reply to chat %d failed: %v", chatID, err)
	}
}

func (b *Bot) sendDocument(chatID int64) {
	if b.document == "" {
		b.reply(chatID, b.messages.PDFMissing)
		return
	}
	if _, err := os.Stat(b.document); err != nil {
		logger.Warnf("telegram: document %s unavailable: %v", b.document, err)
		b.reply(chatID, b.messages.PDFMissing)
		return
	}
	if _, err := b.api.Send(tgbotapi.NewDocument(chatID, tgbotapi.FilePath(b.document))); err != nil {
		logger.Warnf("telegram: send document to chat %d failed: %v", chatID, err)
	}
}
