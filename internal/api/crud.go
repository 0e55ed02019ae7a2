package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/service"
)

// crudEvents describes what a generic CRUD route publishes after a write
type crudEvents[S any] struct {
	created  models.EventType
	updated  models.EventType
	deleted  models.EventType
	document func(op models.EventOperation, v *S) any
	message  func(v *S) string
}

var listEvents = crudEvents[models.ShoppingList]{
	created: models.EventShoppingListCreated,
	updated: models.EventShoppingListUpdated,
	deleted: models.EventShoppingListDeleted,
	document: func(op models.EventOperation, l *models.ShoppingList) any {
		return models.ShoppingListEventData{Operation: op, ShoppingListID: l.ID}
	},
	message: func(l *models.ShoppingList) string { return l.Name },
}

var labelEvents = crudEvents[models.MultiPurposeLabel]{
	created: models.EventLabelCreated,
	updated: models.EventLabelUpdated,
	deleted: models.EventLabelDeleted,
	document: func(op models.EventOperation, l *models.MultiPurposeLabel) any {
		return models.LabelEventData{Operation: op, LabelID: l.ID}
	},
	message: func(l *models.MultiPurposeLabel) string { return l.Name },
}

func (s *Server) publish(eventType models.EventType, groupID uuid.UUID, document any, message string) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, groupID, document, message)
}

func listHandler[C, S, U any](s *Server, repo *service.Crud[C, S, U]) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		page, err := pagination(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		items, err := repo.GetAll(r.Context(), user.GroupID, page)
		if err != nil {
			s.respondServiceError(w, err, "list records")
			return
		}
		if items == nil {
			items = []*S{}
		}
		s.respondJSON(w, http.StatusOK, newPage(page, items))
	}
}

func createHandler[C, S, U any](s *Server, repo *service.Crud[C, S, U], ev crudEvents[S]) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		var data C
		if ok, msg := s.decodeJSON(r, &data); !ok {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}
		v, err := repo.Create(r.Context(), user.GroupID, data)
		if err != nil {
			s.respondServiceError(w, err, "create record")
			return
		}
		s.publish(ev.created, user.GroupID, ev.document(models.OperationCreate, v), ev.message(v))
		s.respondJSON(w, http.StatusCreated, v)
	}
}

func getHandler[C, S, U any](s *Server, repo *service.Crud[C, S, U]) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		id, err := pathUUID(r, "id")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		v, err := repo.GetByID(r.Context(), user.GroupID, id)
		if err != nil {
			s.respondServiceError(w, err, fmt.Sprintf("get record %s", id))
			return
		}
		s.respondJSON(w, http.StatusOK, v)
	}
}

func updateHandler[C, S, U any](s *Server, repo *service.Crud[C, S, U], ev crudEvents[S]) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		id, err := pathUUID(r, "id")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var data U
		if ok, msg := s.decodeJSON(r, &data); !ok {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}
		v, err := repo.Update(r.Context(), user.GroupID, id, data)
		if err != nil {
			s.respondServiceError(w, err, fmt.Sprintf("update record %s", id))
			return
		}
		s.publish(ev.updated, user.GroupID, ev.document(models.OperationUpdate, v), ev.message(v))
		s.respondJSON(w, http.StatusOK, v)
	}
}

func deleteHandler[C, S, U any](s *Server, repo *service.Crud[C, S, U], ev crudEvents[S]) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		id, err := pathUUID(r, "id")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid id")
			return
		}
		v, err := repo.Delete(r.Context(), user.GroupID, id)
		if err != nil {
			s.respondServiceError(w, err, fmt.Sprintf("delete record %s", id))
			return
		}
		s.publish(ev.deleted, user.GroupID, ev.document(models.OperationDelete, v), ev.message(v))
		s.respondJSON(w, http.StatusOK, v)
	}
}
