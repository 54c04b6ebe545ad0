// model/author.go
package model

import "time"

type Author struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	DateOfBirth *string    `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"-"`
}

// AuthorRef is the slim shape embedded in book and loan payloads.
type AuthorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
