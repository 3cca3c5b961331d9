package httpapi

import (
	"errors"
	"net/http"

	"PoopMatesServer/internal/domain"

	"github.com/gorilla/mux"
)

func (a *api) handleCreateChatRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	room, err := a.chatSvc.GetOrCreateRoom(r.Context(), vars["userId"], vars["friendId"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if room.Created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, room)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// handleSendMessage stores empty content as is. A missing user or chat and a
// non-participant sender are reported before a malformed body.
func (a *api) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req sendMessageRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		if err := a.chatSvc.CheckMembership(r.Context(), vars["userId"], vars["chatId"]); err != nil {
			a.writeChatError(w, r, err)
			return
		}
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if _, err := a.chatSvc.SendMessage(r.Context(), vars["userId"], vars["chatId"], req.Content); err != nil {
		a.writeChatError(w, r, err)
		return
	}
	WriteMessage(w, http.StatusCreated, "Message sent")
}

func (a *api) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	history, err := a.chatSvc.GetHistory(r.Context(), vars["userId"], vars["chatId"])
	if err != nil {
		a.writeChatError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

func (a *api) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "User or chat not found")
		return
	}
	a.writeError(w, r, err)
}
