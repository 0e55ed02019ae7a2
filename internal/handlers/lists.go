package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/repository"
	"github.com/Kerhoff/cookbook/internal/telegram"
)

// ---------------------------------------------------------------------------
// ListsHandler – /lists
// ---------------------------------------------------------------------------

// ListsHandler shows the group's shopping lists with their item counts
type ListsHandler struct {
	Chat
	logger *logrus.Logger
}

// NewListsHandler creates a new ListsHandler.
func NewListsHandler(chat Chat, logger *logrus.Logger) *ListsHandler {
	return &ListsHandler{Chat: chat, logger: logger}
}

// Handle processes the /lists command.
func (h *ListsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, _ []string) error {
	groupID, err := h.groupID(ctx)
	if err != nil {
		return err
	}

	summaries, err := h.summaries(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list shopping lists: %w", err)
	}

	if len(summaries) == 0 {
		return send(bot, message.Chat.ID, "🛒 *No shopping lists yet!*")
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping Lists*\n\n")
	for i, s := range summaries {
		sb.WriteString(fmt.Sprintf("*%d.* %s (%d)\n", i+1, escape(s.Name), s.ItemCount))
	}
	sb.WriteString("\n_Use_ `/list <n>` _to see the items_")

	if err := send(bot, message.Chat.ID, sb.String()); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"total":   len(summaries),
	}).Info("Listed shopping lists")
	return nil
}

// ---------------------------------------------------------------------------
// ListHandler – /list <n|name>
// ---------------------------------------------------------------------------

// ListHandler shows one shopping list, unchecked items first
type ListHandler struct {
	Chat
	logger *logrus.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(chat Chat, logger *logrus.Logger) *ListHandler {
	return &ListHandler{Chat: chat, logger: logger}
}

// Handle processes the /list command.
func (h *ListHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return send(bot, message.Chat.ID, "❌ Please name a list.\nUsage: `/list 1`")
	}

	groupID, err := h.groupID(ctx)
	if err != nil {
		return err
	}

	list, err := h.findList(ctx, groupID, strings.Join(args, " "))
	if errors.Is(err, repository.ErrNotFound) {
		return send(bot, message.Chat.ID, "❌ No such list. Use /lists to see them.")
	}
	if err != nil {
		return fmt.Errorf("find shopping list: %w", err)
	}

	if len(list.Items) == 0 {
		return send(bot, message.Chat.ID, fmt.Sprintf("🛒 *%s* is empty!", escape(list.Name)))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *%s*\n\n", escape(list.Name)))

	var open, checked int
	for i := range list.Items {
		item := &list.Items[i]
		line := fmt.Sprintf("%s × %s", formatQuantity(item.Quantity), escape(h.itemName(ctx, groupID, item)))
		if item.Checked {
			checked++
			sb.WriteString(fmt.Sprintf("✅ ~%s~\n", line))
		} else {
			open++
			sb.WriteString(fmt.Sprintf("⬜ *%d.* %s\n", i+1, line))
		}
	}
	sb.WriteString(fmt.Sprintf("\n_%d remaining, %d checked_", open, checked))

	if err := send(bot, message.Chat.ID, sb.String()); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"list_id": list.ID,
		"total":   len(list.Items),
	}).Info("Listed shopping list")
	return nil
}
