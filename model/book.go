// model/book.go
package model

import "time"

type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	PublicationYear int        `json:"publication_year"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"-"`
}

// BookDetail is the presentation shape with active authors resolved.
// The author_books join rows never surface as a model type; the
// repository/join helper owns their lifecycle.
type BookDetail struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	PublicationYear int         `json:"publication_year"`
	Authors         []AuthorRef `json:"authors"`
}
