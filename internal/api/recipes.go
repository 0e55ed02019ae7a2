package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
)

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request, user *models.User) {
	var data models.RecipeCreate
	if ok, msg := s.decodeJSON(r, &data); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	recipe, err := s.svc.CreateRecipe(r.Context(), user.GroupID, data)
	if err != nil {
		s.respondServiceError(w, err, "create recipe")
		return
	}

	s.publish(models.EventRecipeCreated, user.GroupID, models.RecipeEventData{
		Operation: models.OperationCreate,
		RecipeID:  recipe.ID,
		Slug:      recipe.Slug,
	}, recipe.Name)
	s.respondJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, err := s.svc.GetRecipe(r.Context(), user.GroupID, id)
	if err != nil {
		s.respondServiceError(w, err, fmt.Sprintf("get recipe %s", id))
		return
	}
	s.respondJSON(w, http.StatusOK, recipe)
}

// Export paths have the form recipes/<group id>/<recipe id>.json
func exportPath(groupID, recipeID uuid.UUID) string {
	return fmt.Sprintf("recipes/%s/%s.json", groupID, recipeID)
}

func parseExportPath(path string) (groupID, recipeID uuid.UUID, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "recipes" || !strings.HasSuffix(parts[2], ".json") {
		return uuid.Nil, uuid.Nil, fmt.Errorf("unknown file %q", path)
	}
	if groupID, err = uuid.Parse(parts[1]); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("unknown file %q", path)
	}
	if recipeID, err = uuid.Parse(strings.TrimSuffix(parts[2], ".json")); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("unknown file %q", path)
	}
	return groupID, recipeID, nil
}

type fileTokenResponse struct {
	FileToken string `json:"file_token"`
}

// handleExportRecipe hands out a short lived token that downloads the recipe
// without a bearer header.
func (s *Server) handleExportRecipe(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if _, err := s.svc.GetRecipe(r.Context(), user.GroupID, id); err != nil {
		s.respondServiceError(w, err, fmt.Sprintf("export recipe %s", id))
		return
	}

	token, err := s.tokens.CreateFileToken(exportPath(user.GroupID, id))
	if err != nil {
		s.logger.WithError(err).Error("failed to create file token")
		s.respondError(w, http.StatusInternalServerError, "failed to create file token")
		return
	}
	s.respondJSON(w, http.StatusOK, fileTokenResponse{FileToken: token})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, err := s.tokens.ValidateFileToken(r.URL.Query().Get("token"))
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid file token")
		return
	}

	groupID, recipeID, err := parseExportPath(path)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	recipe, err := s.svc.GetRecipe(r.Context(), groupID, recipeID)
	if err != nil {
		s.respondServiceError(w, err, fmt.Sprintf("download recipe %s", recipeID))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", recipe.Slug+".json"))
	s.respondJSON(w, http.StatusOK, recipe)
}
