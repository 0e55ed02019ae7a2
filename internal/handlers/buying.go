package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/events"
	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
	"github.com/Kerhoff/cookbook/internal/telegram"
)

var quantityRegex = regexp.MustCompile(`^x(\d+(?:\.\d+)?)$`)

// ---------------------------------------------------------------------------
// BuyAddHandler – /buy <list> <item> [x quantity]
// ---------------------------------------------------------------------------

// BuyAddHandler adds a free text item to a shopping list. An optional
// quantity suffix like "x2" can be appended at the end.
type BuyAddHandler struct {
	Chat
	events events.Publisher
	logger *logrus.Logger
}

// NewBuyAddHandler creates a new BuyAddHandler.
func NewBuyAddHandler(chat Chat, pub events.Publisher, logger *logrus.Logger) *BuyAddHandler {
	return &BuyAddHandler{Chat: chat, events: pub, logger: logger}
}

// parseItem splits "Milk x2" into a note and a quantity
func parseItem(args []string) (string, float64) {
	last := args[len(args)-1]
	if matches := quantityRegex.FindStringSubmatch(last); matches != nil && len(args) > 1 {
		if q, err := strconv.ParseFloat(matches[1], 64); err == nil && q > 0 {
			return strings.Join(args[:len(args)-1], " "), q
		}
	}
	return strings.Join(args, " "), 1
}

// Handle processes the /buy command.
func (h *BuyAddHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) < 2 {
		return send(bot, message.Chat.ID,
			"❌ Please provide a list and an item.\n\n"+
				"*Usage:*\n"+
				"`/buy 1 Milk x2`\n"+
				"`/buy 1 Whole wheat bread`")
	}

	groupID, err := h.groupID(ctx)
	if err != nil {
		return err
	}

	list, err := h.findList(ctx, groupID, args[0])
	if errors.Is(err, repository.ErrNotFound) {
		return send(bot, message.Chat.ID, "❌ No such list. Use /lists to see them.")
	}
	if err != nil {
		return fmt.Errorf("find shopping list: %w", err)
	}

	note, quantity := parseItem(args[1:])
	items, err := h.svc.BulkCreateItems(ctx, groupID, []models.ShoppingListItemCreate{{
		ShoppingListID: list.ID,
		Position:       len(list.Items),
		Quantity:       quantity,
		Note:           note,
	}})
	if err != nil {
		return fmt.Errorf("add shopping list item: %w", err)
	}
	events.PublishItemEvents(h.events, groupID, items)

	text := fmt.Sprintf("🛒 Added %s × %s to *%s*", formatQuantity(quantity), escape(note), escape(list.Name))
	if err := send(bot, message.Chat.ID, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"list_id": list.ID,
	}).Info("Item added to shopping list")
	return nil
}

// ---------------------------------------------------------------------------
// BuyDoneHandler – /bought <list> <item>
// ---------------------------------------------------------------------------

// BuyDoneHandler checks off an item by its number in /list output
type BuyDoneHandler struct {
	Chat
	events events.Publisher
	logger *logrus.Logger
}

// NewBuyDoneHandler creates a new BuyDoneHandler.
func NewBuyDoneHandler(chat Chat, pub events.Publisher, logger *logrus.Logger) *BuyDoneHandler {
	return &BuyDoneHandler{Chat: chat, events: pub, logger: logger}
}

// Handle processes the /bought command.
func (h *BuyDoneHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		return send(bot, message.Chat.ID, "❌ Please provide a list and an item number.\nUsage: `/bought 1 3`")
	}

	n, err := strconv.Atoi(args[1])
	if err != nil {
		return send(bot, message.Chat.ID, "❌ Invalid item number.")
	}

	groupID, err := h.groupID(ctx)
	if err != nil {
		return err
	}

	list, err := h.findList(ctx, groupID, args[0])
	if errors.Is(err, repository.ErrNotFound) {
		return send(bot, message.Chat.ID, "❌ No such list. Use /lists to see them.")
	}
	if err != nil {
		return fmt.Errorf("find shopping list: %w", err)
	}
	if n < 1 || n > len(list.Items) {
		return send(bot, message.Chat.ID, fmt.Sprintf("❌ *%s* has no item %d.", escape(list.Name), n))
	}

	item := list.Items[n-1]
	items, err := h.svc.BulkUpdateItems(ctx, groupID, []models.ShoppingListItemUpdate{{
		ID:             item.ID,
		ShoppingListID: item.ShoppingListID,
		Position:       item.Position,
		Checked:        true,
		Quantity:       item.Quantity,
		Note:           item.Note,
		FoodID:         item.FoodID,
		UnitID:         item.UnitID,
		LabelID:        item.LabelID,
	}})
	if err != nil {
		return fmt.Errorf("check shopping list item: %w", err)
	}
	events.PublishItemEvents(h.events, groupID, items)

	text := fmt.Sprintf("✅ %s checked off", escape(h.itemName(ctx, groupID, &item)))
	if err := send(bot, message.Chat.ID, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"item_id": item.ID,
	}).Info("Item checked off")
	return nil
}
