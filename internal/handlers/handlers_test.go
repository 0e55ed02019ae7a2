package handlers

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository/memory"
	"github.com/Kerhoff/cookbook/internal/service"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type recordingPublisher struct {
	events []models.ShoppingListItemBulkEventData
}

func (p *recordingPublisher) Publish(_ models.EventType, _ uuid.UUID, document any, _ string) {
	if data, ok := document.(models.ShoppingListItemBulkEventData); ok {
		p.events = append(p.events, data)
	}
}

type fixture struct {
	ctx    context.Context
	svc    *service.Service
	chat   Chat
	group  *models.Group
	sender *fakeSender
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	svc := service.New(logger.Discard(), service.Repositories{
		Groups:  store.Groups(),
		Users:   store.Users(),
		Labels:  store.Labels(),
		Lists:   store.ShoppingLists(),
		Items:   store.ShoppingListItems(),
		Recipes: store.Recipes(),
		Foods:   store.Foods(),
	})
	ctx := context.Background()
	group, err := svc.EnsureGroup(ctx, "Home")
	require.NoError(t, err)

	return &fixture{
		ctx:    ctx,
		svc:    svc,
		chat:   NewChat(svc, "Home"),
		group:  group,
		sender: &fakeSender{},
		pub:    &recordingPublisher{},
	}
}

func (f *fixture) message() *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}, From: &tgbotapi.User{ID: 6}}
}

func (f *fixture) list(t *testing.T, name string) *models.ShoppingList {
	t.Helper()
	list, err := f.svc.Lists.Create(f.ctx, f.group.ID, models.ShoppingListCreate{Name: name})
	require.NoError(t, err)
	return list
}

func TestListsHandler(t *testing.T) {
	f := newFixture(t)
	h := NewListsHandler(f.chat, logger.Discard())

	require.NoError(t, h.Handle(f.ctx, f.sender, f.message(), nil))
	assert.Contains(t, f.sender.last(t), "No shopping lists yet")

	list := f.list(t, "Weekly")
	_, err := f.svc.BulkCreateItems(f.ctx, f.group.ID, []models.ShoppingListItemCreate{
		{ShoppingListID: list.ID, Note: "milk"},
		{ShoppingListID: list.ID, Note: "bread"},
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(f.ctx, f.sender, f.message(), nil))
	assert.Contains(t, f.sender.last(t), "*1.* Weekly (2)")
}

func TestListHandler(t *testing.T) {
	f := newFixture(t)
	h := NewListHandler(f.chat, logger.Discard())

	recipe, err := f.svc.CreateRecipe(f.ctx, f.group.ID, models.RecipeCreate{
		Name:        "Toast",
		Ingredients: []models.RecipeIngredientCreate{{Food: "Bread", Quantity: 2}},
	})
	require.NoError(t, err)
	list := f.list(t, "Weekly")
	_, _, err = f.svc.AddRecipeIngredients(f.ctx, f.group.ID, list.ID, recipe.ID, 1)
	require.NoError(t, err)

	require.NoError(t, h.Handle(f.ctx, f.sender, f.message(), []string{"1"}))
	text := f.sender.last(t)
	assert.Contains(t, text, "*Weekly*")
	assert.Contains(t, text, "2 × Bread")
	assert.Contains(t, text, "1 remaining, 0 checked")

	require.NoError(t, h.Handle(f.ctx, f.sender, f.message(), []string{"weekly"}))
	assert.Contains(t, f.sender.last(t), "2 × Bread")

	require.NoError(t, h.Handle(f.ctx, f.sender, f.message(), []string{"7"}))
	assert.Contains(t, f.sender.last(t), "No such list")

	require.NoError(t, h.Handle(f.ctx, f.sender, f.message(), nil))
	assert.Contains(t, f.sender.last(t), "Usage")
}

func TestBuyHandlers(t *testing.T) {
	f := newFixture(t)
	list := f.list(t, "Weekly")
	buy := NewBuyAddHandler(f.chat, f.pub, logger.Discard())
	bought := NewBuyDoneHandler(f.chat, f.pub, logger.Discard())

	require.NoError(t, buy.Handle(f.ctx, f.sender, f.message(), []string{"1", "Oat", "milk", "x2"}))
	assert.Contains(t, f.sender.last(t), "Added 2 × Oat milk to *Weekly*")

	stored, err := f.svc.Lists.GetByID(f.ctx, f.group.ID, list.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Oat milk", stored.Items[0].Note)
	assert.Equal(t, 2.0, stored.Items[0].Quantity)

	require.NoError(t, bought.Handle(f.ctx, f.sender, f.message(), []string{"1", "1"}))
	assert.Contains(t, f.sender.last(t), "Oat milk checked off")

	stored, err = f.svc.Lists.GetByID(f.ctx, f.group.ID, list.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Checked)
	assert.Equal(t, 2.0, stored.Items[0].Quantity)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, models.OperationCreate, f.pub.events[0].Operation)
	assert.Equal(t, models.OperationUpdate, f.pub.events[1].Operation)

	require.NoError(t, bought.Handle(f.ctx, f.sender, f.message(), []string{"1", "9"}))
	assert.Contains(t, f.sender.last(t), "has no item 9")

	require.NoError(t, buy.Handle(f.ctx, f.sender, f.message(), []string{"1"}))
	assert.Contains(t, f.sender.last(t), "Usage")
}

func TestParseItem(t *testing.T) {
	note, q := parseItem([]string{"Milk", "x3"})
	assert.Equal(t, "Milk", note)
	assert.Equal(t, 3.0, q)

	note, q = parseItem([]string{"x3"})
	assert.Equal(t, "x3", note)
	assert.Equal(t, 1.0, q)

	note, q = parseItem([]string{"Flour", "x1.5"})
	assert.Equal(t, "Flour", note)
	assert.Equal(t, 1.5, q)
}
