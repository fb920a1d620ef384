package book

import "strings"

// Book is a single catalogue record. ID is assigned by the store and never changes.
type Book struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Input carries the mutable fields of a Book as supplied by a client.
// A nil field was omitted from the request.
type Input struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
}

// Empty reports whether the input names no field at all.
func (in Input) Empty() bool {
	return in.Title == nil && in.Author == nil
}

// Query filters List results. Empty fields match everything.
type Query struct {
	Title  string
	Author string
}

// Matches reports whether b satisfies the query using case-insensitive substring matching.
func (q Query) Matches(b Book) bool {
	if q.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(q.Title)) {
		return false
	}
	if q.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(q.Author)) {
		return false
	}
	return true
}

// Seed returns the starter catalogue served on a fresh process.
func Seed() []Book {
	return []Book{
		{ID: 1, Title: "The Pragmatic Programmer", Author: "Andrew Hunt"},
		{ID: 2, Title: "Clean Code", Author: "Robert C. Martin"},
		{ID: 3, Title: "Introduction to Algorithms", Author: "Thomas H. Cormen"},
	}
}
