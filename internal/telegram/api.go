// Package telegram is the Telegram surface of the bot: the outbound sender
// used by the sweep and the conversational command handler.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewAPI authorizes token against the Bot API. Library logs go through slog.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	_ = tgbotapi.SetLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBotInit, err)
	}
	api.Debug = debug

	slog.Info(config.MsgBotAuthorized,
		config.LogKeyComponent, config.CompBot,
		config.LogKeyAccount, api.Self.UserName)
	return api, nil
}

// Sender delivers reminder texts as plain chat messages.
type Sender struct {
	API API
}

// Send implements engine.Sender. The owner id is the chat id.
func (s Sender) Send(ctx context.Context, ownerID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.API.Send(tgbotapi.NewMessage(ownerID, text))
	return err
}
