package models

import "time"

// PushSubscription is one registered browser push endpoint for a user.
// A user may hold several (one per device); registration upserts on
// (user_id, endpoint).
type PushSubscription struct {
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256DH    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// PushPayload is the message body handed to the push delivery collaborator.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
	URL   string `json:"url,omitempty"`
}
