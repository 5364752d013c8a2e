package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/higress-group/docqa-bot/schema"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatSink delivers pipeline output into one chat.
type chatSink struct {
	api    API
	chatID int64
}

func (s *chatSink) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.api.Send(tgbotapi.NewMessage(s.chatID, text))
	return err
}

func (s *chatSink) SendImage(ctx context.Context, img schema.PageImage, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileBytes{Name: "page_" + img.Page + ".jpg", Bytes: img.Data})
	photo.Caption = caption
	_, err := s.api.Send(photo)
	return err
}

// SendProgress returns as soon as ctx is done; the Bot API client has no
// per-call context, so a slow request finishes in the background.
func (s *chatSink) SendProgress(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.api.Request(tgbotapi.NewChatAction(s.chatID, tgbotapi.ChatTyping))
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
