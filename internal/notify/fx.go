package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/orgball2608/channel-archiver/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// New returns a Telegram notifier, or Noop when the bot token or report chat is unset.
func New(opts Opts) (Notifier, error) {
	c := opts.Config.Telegram
	if c.Token == "" || c.ReportChat == 0 {
		opts.Logger.Debug("Run report notifications disabled")
		return Noop{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		opts.Logger.Error("Error creating bot", "error", err)
		return nil, err
	}

	return NewTelegram(bot, c.ReportChat, opts.Logger), nil
}

var Module = fx.Module("notify",
	fx.Provide(New),
)
