package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Kerhoff/cookbook/internal/auth"
	"github.com/Kerhoff/cookbook/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleLogin accepts either an OAuth2 style form or a JSON body
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.authn.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}

	token, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		s.logger.WithError(err).Error("failed to create access token")
		s.respondError(w, http.StatusInternalServerError, "failed to create access token")
		return
	}

	s.logger.WithField("user", user.Username).Info("User signed in")
	s.respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// respondAuthError maps login failures. Wrong credentials always get the
// same answer whichever backend rejected them.
func (s *Server) respondAuthError(w http.ResponseWriter, err error) {
	var cfgErr *auth.DirectoryConfigurationError
	var transportErr *auth.DirectoryTransportError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.As(err, &cfgErr):
		s.respondError(w, http.StatusInternalServerError, "authentication backend is misconfigured")
	case errors.As(err, &transportErr):
		s.respondError(w, http.StatusBadGateway, "authentication backend is unavailable")
	default:
		s.logger.WithError(err).Error("failed to authenticate user")
		s.respondError(w, http.StatusInternalServerError, "failed to authenticate user")
	}
}

func (s *Server) handleSelf(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.respondJSON(w, http.StatusOK, user)
}
