package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func (a *api) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.usersSvc.GetProfile(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

type updateStatusRequest struct {
	IsPooping          *bool      `json:"isPooping" validate:"required"`
	IsPoopingExpiresAt *time.Time `json:"isPoopingExpiresAt"`
}

func (a *api) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var req updateStatusRequest
	_, decodeErr := decodeJSONAllowEmpty(w, r, &req)

	// Unknown users get a 404 whatever the body holds.
	if _, err := a.usersSvc.GetProfile(r.Context(), userID); err != nil {
		a.writeError(w, r, err)
		return
	}
	if decodeErr != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if err := validateRequest(req); err != nil {
		WriteDomainError(w, err)
		return
	}

	u, err := a.usersSvc.UpdateStatus(r.Context(), userID, *req.IsPooping, req.IsPoopingExpiresAt)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

func (a *api) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.usersSvc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}
