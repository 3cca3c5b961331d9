package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (a *api) handleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := a.friendsSvc.SendRequest(r.Context(), vars["userId"], vars["friendId"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Friend request sent")
}

// Accepting or rejecting a request that does not exist still answers 200.
func (a *api) handleAcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := a.friendsSvc.Accept(r.Context(), vars["userId"], vars["friendId"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Friend request accepted")
}

func (a *api) handleRejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := a.friendsSvc.Reject(r.Context(), vars["userId"], vars["friendId"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Friend request rejected")
}
