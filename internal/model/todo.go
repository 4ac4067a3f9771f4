package model

import "time"

// Todo is the only persisted entity. ID is minted by the server and never
// changes; Title is fixed at creation; Completed is the only mutable field.
type Todo struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	DueAt     *time.Time `json:"dueAt,omitempty"`
}

// HasDueAt reports whether a due time is set.
func (t Todo) HasDueAt() bool {
	return t.DueAt != nil && !t.DueAt.IsZero()
}

// TodoPatch is a partial update. Only the completion flag can be patched.
type TodoPatch struct {
	Completed bool
}

// Envelope wraps every successful API response under a single "todos" key.
type Envelope struct {
	Todos any `json:"todos"`
}
