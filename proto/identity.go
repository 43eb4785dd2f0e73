package proto

import "strings"

type UserID string

func (uid UserID) String() string { return string(uid) }

func (uid UserID) Parse() (kind, id string) {
	parts := strings.SplitN(string(uid), ":", 2)
	if len(parts) < 2 {
		return "", string(uid)
	}
	return parts[0], parts[1]
}

// SystemName is the display name attached to messages generated by the
// room itself (joins, parts, announcements). System messages carry no
// user id.
const SystemName = "System"

// An IdentityView is the sender attribution captured on a message at
// the time it was posted.
type IdentityView struct {
	ID     UserID `json:"user_id,omitempty"` // absent for system messages
	Name   string `json:"sender"`            // the name-in-use at the time this view was captured
	Avatar string `json:"avatar,omitempty"`  // reference to the sender's avatar, if any
}

// System reports whether this view attributes a message to the room
// itself rather than to a user.
func (v *IdentityView) System() bool {
	return v != nil && v.ID == "" && v.Name == SystemName
}
