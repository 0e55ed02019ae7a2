package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/models"
)

type published struct {
	eventType models.EventType
	groupID   uuid.UUID
	document  any
}

type recordingPublisher struct {
	events []published
}

func (p *recordingPublisher) Publish(eventType models.EventType, groupID uuid.UUID, document any, _ string) {
	p.events = append(p.events, published{eventType: eventType, groupID: groupID, document: document})
}

func item(listID uuid.UUID) models.ShoppingListItem {
	return models.ShoppingListItem{ID: uuid.New(), ShoppingListID: listID}
}

func TestPublishItemEvents(t *testing.T) {
	groupID := uuid.New()
	listA, listB := uuid.New(), uuid.New()

	t.Run("OneEventPerList", func(t *testing.T) {
		a1, b1, a2 := item(listA), item(listB), item(listA)
		pub := &recordingPublisher{}

		PublishItemEvents(pub, groupID, &models.ShoppingListItemsCollection{
			CreatedItems: []models.ShoppingListItem{a1, b1, a2},
		})

		require.Len(t, pub.events, 2)
		first := pub.events[0].document.(models.ShoppingListItemBulkEventData)
		second := pub.events[1].document.(models.ShoppingListItemBulkEventData)

		assert.Equal(t, models.EventShoppingListUpdated, pub.events[0].eventType)
		assert.Equal(t, groupID, pub.events[0].groupID)
		assert.Equal(t, models.OperationCreate, first.Operation)
		assert.Equal(t, listA, first.ShoppingListID)
		assert.Equal(t, []uuid.UUID{a1.ID, a2.ID}, first.ShoppingListItemIDs)
		assert.Equal(t, listB, second.ShoppingListID)
		assert.Equal(t, []uuid.UUID{b1.ID}, second.ShoppingListItemIDs)
	})

	t.Run("OperationsKeptApart", func(t *testing.T) {
		pub := &recordingPublisher{}

		PublishItemEvents(pub, groupID, &models.ShoppingListItemsCollection{
			CreatedItems: []models.ShoppingListItem{item(listA)},
			UpdatedItems: []models.ShoppingListItem{item(listA), item(listB)},
			DeletedItems: []models.ShoppingListItem{item(listB)},
		})

		var ops []models.EventOperation
		for _, e := range pub.events {
			ops = append(ops, e.document.(models.ShoppingListItemBulkEventData).Operation)
		}
		assert.Equal(t, []models.EventOperation{
			models.OperationCreate,
			models.OperationUpdate,
			models.OperationUpdate,
			models.OperationDelete,
		}, ops)
	})

	t.Run("EmptyCollection", func(t *testing.T) {
		pub := &recordingPublisher{}
		PublishItemEvents(pub, groupID, &models.ShoppingListItemsCollection{})
		PublishItemEvents(pub, groupID, nil)
		assert.Empty(t, pub.events)
	})
}
