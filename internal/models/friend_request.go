package models

// Friend request statuses. Any other value is ignored by the handlers.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

type FriendRequest struct {
	ID               string `json:"id"`
	SenderID         string `json:"senderId"`
	SenderUsername   string `json:"senderUsername"`
	ReceiverID       string `json:"receiverId"`
	ReceiverUsername string `json:"receiverUsername,omitempty"`
	Status           string `json:"status"`
}

// IsAcceptance reports whether before -> after is the pending to accepted transition.
func IsAcceptance(before, after *FriendRequest) bool {
	if before == nil || after == nil {
		return false
	}
	return before.Status == FriendRequestPending && after.Status == FriendRequestAccepted
}
