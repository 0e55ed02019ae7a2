package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// ShoppingListRepository is the in-memory repository.ShoppingListRepository
type ShoppingListRepository struct{ s *Store }

var _ repository.ShoppingListRepository = (*ShoppingListRepository)(nil)

func (r *ShoppingListRepository) Create(_ context.Context, groupID uuid.UUID, data models.ShoppingListCreate) (*models.ShoppingList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	list := &models.ShoppingList{
		ID:        uuid.New(),
		GroupID:   groupID,
		Name:      data.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.lists[list.ID] = list
	return r.s.loadList(list), nil
}

func (r *ShoppingListRepository) GetByID(_ context.Context, groupID, id uuid.UUID) (*models.ShoppingList, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list, ok := r.s.lists[id]
	if !ok || list.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	return r.s.loadList(list), nil
}

func (r *ShoppingListRepository) GetAll(_ context.Context, groupID uuid.UUID, p repository.Pagination) ([]*models.ShoppingList, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.groupLists(groupID)
	out := make([]*models.ShoppingList, 0, len(all))
	for _, l := range page(all, p.Offset(), p.Limit()) {
		cp := *l
		cp.Items = nil
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ShoppingListRepository) Summaries(_ context.Context, groupID uuid.UUID, p repository.Pagination) ([]*models.ShoppingListSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.groupLists(groupID)
	out := make([]*models.ShoppingListSummary, 0, len(all))
	for _, l := range page(all, p.Offset(), p.Limit()) {
		out = append(out, &models.ShoppingListSummary{
			ID:        l.ID,
			GroupID:   l.GroupID,
			Name:      l.Name,
			ItemCount: len(r.s.itemsByList[l.ID]),
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		})
	}
	return out, nil
}

func (r *ShoppingListRepository) ExistingIDs(_ context.Context, groupID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if l, ok := r.s.lists[id]; ok && l.GroupID == groupID {
			found[id] = true
		}
	}
	return found, nil
}

func (r *ShoppingListRepository) Update(_ context.Context, groupID, id uuid.UUID, data models.ShoppingListUpdate) (*models.ShoppingList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, ok := r.s.lists[id]
	if !ok || list.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	list.Name = data.Name
	list.UpdatedAt = r.s.now()
	return r.s.loadList(list), nil
}

func (r *ShoppingListRepository) Delete(_ context.Context, groupID, id uuid.UUID) (*models.ShoppingList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list, ok := r.s.lists[id]
	if !ok || list.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	out := r.s.loadList(list)
	for _, itemID := range r.s.itemsByList[id] {
		delete(r.s.items, itemID)
	}
	delete(r.s.itemsByList, id)
	delete(r.s.lists, id)
	return out, nil
}

// groupLists returns the group's lists ordered by creation; caller holds the lock
func (s *Store) groupLists(groupID uuid.UUID) []*models.ShoppingList {
	var all []*models.ShoppingList
	for _, l := range s.lists {
		if l.GroupID == groupID {
			all = append(all, l)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}

// loadList copies a list with its items; caller holds the lock
func (s *Store) loadList(list *models.ShoppingList) *models.ShoppingList {
	out := *list
	out.Items = make([]models.ShoppingListItem, 0, len(s.itemsByList[list.ID]))
	for _, itemID := range s.itemsByList[list.ID] {
		out.Items = append(out.Items, *s.items[itemID])
	}
	sortItems(out.Items)
	return &out
}

func sortItems(items []models.ShoppingListItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
}

// ShoppingListItemRepository is the in-memory repository.ShoppingListItemRepository
type ShoppingListItemRepository struct{ s *Store }

var _ repository.ShoppingListItemRepository = (*ShoppingListItemRepository)(nil)

func (r *ShoppingListItemRepository) GetByID(_ context.Context, groupID, id uuid.UUID) (*models.ShoppingListItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[id]
	if !ok || !r.s.itemInGroup(item, groupID) {
		return nil, repository.ErrNotFound
	}
	out := *item
	return &out, nil
}

func (r *ShoppingListItemRepository) GetByIDs(_ context.Context, groupID uuid.UUID, ids []uuid.UUID) ([]*models.ShoppingListItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.ShoppingListItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.s.items[id]; ok && r.s.itemInGroup(item, groupID) {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ShoppingListItemRepository) GetByList(_ context.Context, listID uuid.UUID) ([]*models.ShoppingListItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.ShoppingListItem, 0, len(r.s.itemsByList[listID]))
	for _, id := range r.s.itemsByList[listID] {
		cp := *r.s.items[id]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *ShoppingListItemRepository) ApplyChanges(_ context.Context, changes repository.ItemChanges) (*models.ShoppingListItemsCollection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Check everything before touching state so a failure leaves no trace.
	for _, item := range changes.Create {
		if _, ok := r.s.lists[item.ShoppingListID]; !ok {
			return nil, fmt.Errorf("shopping list %s: %w", item.ShoppingListID, repository.ErrNotFound)
		}
	}
	for _, item := range changes.Update {
		if _, ok := r.s.items[item.ID]; !ok {
			return nil, fmt.Errorf("shopping list item %s: %w", item.ID, repository.ErrNotFound)
		}
		if _, ok := r.s.lists[item.ShoppingListID]; !ok {
			return nil, fmt.Errorf("shopping list %s: %w", item.ShoppingListID, repository.ErrNotFound)
		}
	}
	for _, id := range changes.Delete {
		if _, ok := r.s.items[id]; !ok {
			return nil, fmt.Errorf("shopping list item %s: %w", id, repository.ErrNotFound)
		}
	}

	now := r.s.now()
	out := &models.ShoppingListItemsCollection{
		CreatedItems: []models.ShoppingListItem{},
		UpdatedItems: []models.ShoppingListItem{},
		DeletedItems: []models.ShoppingListItem{},
	}

	for _, item := range changes.Create {
		it := item
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.CreatedAt = now
		it.UpdatedAt = now
		r.s.items[it.ID] = &it
		r.s.itemsByList[it.ShoppingListID] = append(r.s.itemsByList[it.ShoppingListID], it.ID)
		out.CreatedItems = append(out.CreatedItems, it)
	}

	for _, item := range changes.Update {
		existing := r.s.items[item.ID]
		it := item
		it.CreatedAt = existing.CreatedAt
		it.UpdatedAt = now
		if existing.ShoppingListID != it.ShoppingListID {
			r.s.unindex(existing.ShoppingListID, it.ID)
			r.s.itemsByList[it.ShoppingListID] = append(r.s.itemsByList[it.ShoppingListID], it.ID)
		}
		r.s.items[it.ID] = &it
		out.UpdatedItems = append(out.UpdatedItems, it)
	}

	for _, id := range changes.Delete {
		existing, ok := r.s.items[id]
		if !ok {
			// listed twice in the same batch
			continue
		}
		r.s.unindex(existing.ShoppingListID, id)
		delete(r.s.items, id)
		out.DeletedItems = append(out.DeletedItems, *existing)
	}

	return out, nil
}

// itemInGroup reports whether the item's parent list belongs to the group; caller holds the lock
func (s *Store) itemInGroup(item *models.ShoppingListItem, groupID uuid.UUID) bool {
	list, ok := s.lists[item.ShoppingListID]
	return ok && list.GroupID == groupID
}

func (s *Store) unindex(listID, itemID uuid.UUID) {
	ids := s.itemsByList[listID]
	for i, id := range ids {
		if id == itemID {
			s.itemsByList[listID] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}
