package models

import "time"

// Topic is a node in the topic forest. IDs are path-style ("science/physics"),
// Parent is empty for roots. The parent graph must stay acyclic; every topic has
// at most one parent.
type Topic struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Parent    string    `json:"parent,omitempty" db:"parent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
