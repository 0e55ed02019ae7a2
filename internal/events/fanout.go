package events

import (
	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
)

// PublishItemEvents emits one shopping_list_updated event per (list,
// operation) pair found in items. Lists keep the order in which they first
// appear; operations go create, update, delete.
func PublishItemEvents(pub Publisher, groupID uuid.UUID, items *models.ShoppingListItemsCollection) {
	if items == nil {
		return
	}
	publishGrouped(pub, groupID, models.OperationCreate, items.CreatedItems)
	publishGrouped(pub, groupID, models.OperationUpdate, items.UpdatedItems)
	publishGrouped(pub, groupID, models.OperationDelete, items.DeletedItems)
}

func publishGrouped(pub Publisher, groupID uuid.UUID, op models.EventOperation, items []models.ShoppingListItem) {
	if len(items) == 0 {
		return
	}

	var order []uuid.UUID
	byList := make(map[uuid.UUID][]uuid.UUID)
	for _, item := range items {
		if _, seen := byList[item.ShoppingListID]; !seen {
			order = append(order, item.ShoppingListID)
		}
		byList[item.ShoppingListID] = append(byList[item.ShoppingListID], item.ID)
	}

	for _, listID := range order {
		pub.Publish(models.EventShoppingListUpdated, groupID, models.ShoppingListItemBulkEventData{
			Operation:           op,
			ShoppingListID:      listID,
			ShoppingListItemIDs: byList[listID],
		}, "")
	}
}
