package domain

import "time"

// User is the sanitized user record. The password hash only travels inside
// UserWithPassword and is never serialized.
type User struct {
	ID                 string     `json:"_id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	IsPooping          bool       `json:"isPooping"`
	IsPoopingExpiresAt *time.Time `json:"isPoopingExpiresAt"`
	Friends            []string   `json:"friends"`
	FriendRequests     []string   `json:"friendRequests"`
	ChatRooms          []string   `json:"chatRooms"`
}

type UserWithPassword struct {
	User
	PasswordHash string
}

// HasFriendRequestFrom reports whether userID has a pending request on u.
func (u User) HasFriendRequestFrom(userID string) bool {
	return containsID(u.FriendRequests, userID)
}

func (u User) IsFriendOf(userID string) bool {
	return containsID(u.Friends, userID)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
