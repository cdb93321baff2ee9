// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/rcharbonnier/allscans/internal/api/response"
	"github.com/rcharbonnier/allscans/internal/auth"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

// mapStorageError translates repository errors to HTTP responses.
func mapStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(w, err)
		return
	}
	response.InternalError(w, err)
}

// currentUser pulls the authenticated user id out of the request context.
// The auth middleware guarantees it is present on protected routes.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, errors.New("authentication required"))
	}
	return userID, ok
}
