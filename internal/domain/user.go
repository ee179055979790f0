package domain

import "time"

// User identity is established upstream (authentication is out of scope for
// this service); rows are kept locally for ownership and cascade semantics.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Staff     bool      `json:"staff"`
	CreatedAt time.Time `json:"created_at"`
}
