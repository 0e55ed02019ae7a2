package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
	"github.com/Kerhoff/cookbook/internal/service"
	"github.com/Kerhoff/cookbook/internal/telegram"
)

// Chat holds what every command needs: the service and the group the chat
// is bound to.
type Chat struct {
	svc   *service.Service
	group string
}

// NewChat binds chat commands to the named group
func NewChat(svc *service.Service, group string) Chat {
	return Chat{svc: svc, group: group}
}

func (c Chat) groupID(ctx context.Context) (uuid.UUID, error) {
	group, err := c.svc.EnsureGroup(ctx, c.group)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve group %q: %w", c.group, err)
	}
	return group.ID, nil
}

// summaries returns the group's lists in the order /lists numbers them
func (c Chat) summaries(ctx context.Context, groupID uuid.UUID) ([]*models.ShoppingListSummary, error) {
	return c.svc.ListSummaries(ctx, groupID, repository.Pagination{PerPage: repository.DefaultPerPage})
}

// findList resolves a /lists number or a list name
func (c Chat) findList(ctx context.Context, groupID uuid.UUID, ref string) (*models.ShoppingList, error) {
	summaries, err := c.summaries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}

	var match *models.ShoppingListSummary
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(summaries) {
			match = summaries[n-1]
		}
	} else {
		for _, s := range summaries {
			if strings.EqualFold(s.Name, ref) {
				match = s
				break
			}
		}
	}
	if match == nil {
		return nil, repository.ErrNotFound
	}

	return c.svc.Lists.GetByID(ctx, groupID, match.ID)
}

// itemName renders an item as food name and note
func (c Chat) itemName(ctx context.Context, groupID uuid.UUID, item *models.ShoppingListItem) string {
	var parts []string
	if item.FoodID != nil {
		if food, err := c.svc.GetFood(ctx, groupID, *item.FoodID); err == nil {
			parts = append(parts, food.Name)
		}
	}
	if item.Note != "" {
		parts = append(parts, item.Note)
	}
	if len(parts) == 0 {
		return "(unnamed)"
	}
	return strings.Join(parts, ", ")
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'g', -1, 64)
}

func send(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}
