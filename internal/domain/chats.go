package domain

import "time"

type Chat struct {
	ID           string
	Participants []string
	Messages     []ChatMessage
}

func (c Chat) HasParticipant(userID string) bool {
	return containsID(c.Participants, userID)
}

// ChatMessage is a stored message; Sender is a user id.
type ChatMessage struct {
	ID        string
	Sender    string
	Content   string
	Timestamp time.Time
}

// HistoryMessage is a ChatMessage with its sender expanded. Sender is nil when
// the referenced user no longer resolves.
type HistoryMessage struct {
	ID        string    `json:"_id"`
	Sender    *User     `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatRoom struct {
	ChatID  string `json:"chatId"`
	Created bool   `json:"-"`
}

// PairKey normalises an unordered pair of user ids.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
