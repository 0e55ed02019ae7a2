package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/models"
)

// ListLookup resolves shopping list names for item notifications
type ListLookup interface {
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.ShoppingList, error)
}

// Notifier is a bus listener that posts one group's events to a chat
type Notifier struct {
	sender  Sender
	chatID  int64
	groupID uuid.UUID
	lists   ListLookup
	logger  *logrus.Logger
}

// NewNotifier creates a notifier for the events of groupID
func NewNotifier(sender Sender, chatID int64, groupID uuid.UUID, lists ListLookup, logger *logrus.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		chatID:  chatID,
		groupID: groupID,
		lists:   lists,
		logger:  logger,
	}
}

func (n *Notifier) Name() string { return "telegram" }

// Handle sends the event to the chat. Events of other groups and event
// types without a chat rendering are ignored.
func (n *Notifier) Handle(ctx context.Context, event models.Event) error {
	if event.GroupID != n.groupID {
		return nil
	}

	text := n.format(ctx, event)
	if text == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	n.logger.WithField("event_type", event.Type).Debug("Sent Telegram notification")
	return nil
}

func (n *Notifier) format(ctx context.Context, event models.Event) string {
	name := escape(event.Message)

	switch doc := event.Document.(type) {
	case models.ShoppingListItemBulkEventData:
		return fmt.Sprintf("🛒 *%s*: %s", n.listName(ctx, doc.ShoppingListID), itemSummary(doc))
	case models.ShoppingListEventData:
		switch doc.Operation {
		case models.OperationCreate:
			return fmt.Sprintf("🛒 New shopping list *%s*", name)
		case models.OperationUpdate:
			return fmt.Sprintf("✏️ Shopping list *%s* updated", name)
		case models.OperationDelete:
			return fmt.Sprintf("🗑 Shopping list *%s* deleted", name)
		}
	case models.RecipeEventData:
		if doc.Operation == models.OperationCreate {
			return fmt.Sprintf("📖 New recipe *%s*", name)
		}
	}
	return ""
}

func (n *Notifier) listName(ctx context.Context, id uuid.UUID) string {
	if n.lists != nil {
		if list, err := n.lists.GetByID(ctx, n.groupID, id); err == nil {
			return escape(list.Name)
		}
	}
	return "shopping list"
}

func itemSummary(doc models.ShoppingListItemBulkEventData) string {
	count := len(doc.ShoppingListItemIDs)
	noun := "items"
	if count == 1 {
		noun = "item"
	}

	switch doc.Operation {
	case models.OperationCreate:
		return fmt.Sprintf("%d %s added", count, noun)
	case models.OperationDelete:
		return fmt.Sprintf("%d %s removed", count, noun)
	default:
		return fmt.Sprintf("%d %s updated", count, noun)
	}
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}
