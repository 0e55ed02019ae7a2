package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/events"
	"github.com/Kerhoff/cookbook/internal/models"
)

func (s *Server) publishItems(user *models.User, items *models.ShoppingListItemsCollection) {
	if s.events == nil {
		return
	}
	events.PublishItemEvents(s.events, user.GroupID, items)
}

// ---------------------------------------------------------------------------
// Shopping lists
// ---------------------------------------------------------------------------

func (s *Server) handleGetListSummaries(w http.ResponseWriter, r *http.Request, user *models.User) {
	page, err := pagination(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries, err := s.svc.ListSummaries(r.Context(), user.GroupID, page)
	if err != nil {
		s.respondServiceError(w, err, "list shopping lists")
		return
	}
	if summaries == nil {
		summaries = []*models.ShoppingListSummary{}
	}
	s.respondJSON(w, http.StatusOK, newPage(page, summaries))
}

type recipeIncrementRequest struct {
	Quantity *float64 `json:"recipe_increment_quantity"`
}

type recipeDecrementRequest struct {
	Quantity *float64 `json:"recipe_decrement_quantity"`
}

func quantityOrOne(q *float64) float64 {
	if q == nil {
		return 1
	}
	return *q
}

func (s *Server) handleAddRecipe(w http.ResponseWriter, r *http.Request, user *models.User) {
	listID, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid shopping list id")
		return
	}
	recipeID, err := pathUUID(r, "recipeId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req recipeIncrementRequest
	if ok, msg := s.decodeOptionalJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	list, items, err := s.svc.AddRecipeIngredients(r.Context(), user.GroupID, listID, recipeID, quantityOrOne(req.Quantity))
	if err != nil {
		s.respondServiceError(w, err, "add recipe ingredients")
		return
	}
	s.publishItems(user, items)
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleRemoveRecipe(w http.ResponseWriter, r *http.Request, user *models.User) {
	listID, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid shopping list id")
		return
	}
	recipeID, err := pathUUID(r, "recipeId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req recipeDecrementRequest
	if ok, msg := s.decodeOptionalJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	list, items, err := s.svc.RemoveRecipeIngredients(r.Context(), user.GroupID, listID, recipeID, quantityOrOne(req.Quantity))
	if err != nil {
		s.respondServiceError(w, err, "remove recipe ingredients")
		return
	}
	s.publishItems(user, items)
	s.respondJSON(w, http.StatusOK, list)
}

// ---------------------------------------------------------------------------
// Shopping list items
// ---------------------------------------------------------------------------

func (s *Server) createItems(w http.ResponseWriter, r *http.Request, user *models.User, data []models.ShoppingListItemCreate) {
	items, err := s.svc.BulkCreateItems(r.Context(), user.GroupID, data)
	if err != nil {
		s.respondServiceError(w, err, "create shopping list items")
		return
	}
	s.publishItems(user, items)
	s.respondJSON(w, http.StatusCreated, items)
}

func (s *Server) handleCreateItems(w http.ResponseWriter, r *http.Request, user *models.User) {
	var data []models.ShoppingListItemCreate
	if ok, msg := s.decodeJSON(r, &data); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	s.createItems(w, r, user, data)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	var data models.ShoppingListItemCreate
	if ok, msg := s.decodeJSON(r, &data); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	s.createItems(w, r, user, []models.ShoppingListItemCreate{data})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := s.svc.GetItem(r.Context(), user.GroupID, id)
	if err != nil {
		s.respondServiceError(w, err, fmt.Sprintf("get shopping list item %s", id))
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) updateItems(w http.ResponseWriter, r *http.Request, user *models.User, data []models.ShoppingListItemUpdate) {
	items, err := s.svc.BulkUpdateItems(r.Context(), user.GroupID, data)
	if err != nil {
		s.respondServiceError(w, err, "update shopping list items")
		return
	}
	s.publishItems(user, items)
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpdateItems(w http.ResponseWriter, r *http.Request, user *models.User) {
	var data []models.ShoppingListItemUpdate
	if ok, msg := s.decodeJSON(r, &data); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	s.updateItems(w, r, user, data)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var data models.ShoppingListItemUpdate
	if ok, msg := s.decodeJSON(r, &data); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	data.ID = id
	s.updateItems(w, r, user, []models.ShoppingListItemUpdate{data})
}

func (s *Server) deleteItems(w http.ResponseWriter, r *http.Request, user *models.User, ids []uuid.UUID) {
	items, err := s.svc.BulkDeleteItems(r.Context(), user.GroupID, ids)
	if err != nil {
		s.respondServiceError(w, err, "delete shopping list items")
		return
	}
	s.publishItems(user, items)

	message := fmt.Sprintf("Successfully deleted %d items", len(items.DeletedItems))
	if len(items.DeletedItems) == 1 {
		message = "Successfully deleted 1 item"
	}
	s.respondJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (s *Server) handleDeleteItems(w http.ResponseWriter, r *http.Request, user *models.User) {
	ids, err := queryUUIDs(r, "ids")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.deleteItems(w, r, user, ids)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	s.deleteItems(w, r, user, []uuid.UUID{id})
}
