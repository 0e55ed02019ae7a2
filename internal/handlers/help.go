package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(_ context.Context, bot telegram.Sender, message *tgbotapi.Message, _ []string) error {
	helpText := `📚 *Cookbook Help*

*Shopping lists:*
• /lists - Show all shopping lists
• /list <n|name> - Show the items of a list
• /buy <n> <item> [x qty] - Add an item to list n
• /bought <n> <item> - Check off item number <item> of list n

_List numbers are the ones shown by /lists._`

	if err := send(bot, message.Chat.ID, helpText); err != nil {
		return err
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")
	return nil
}
