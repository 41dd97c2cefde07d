package transport

type LoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ProfileUpdateRequest struct {
	Name string `json:"name"`
}

// ReadOnlyBuyerKeys are echoed back by clients that resubmit a whole record;
// they are dropped from update payloads.
var ReadOnlyBuyerKeys = []string{"id", "ownerId", "ownerName", "createdAt", "updatedAt"}
