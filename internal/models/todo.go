package models

import "time"

// Todo is a labeled task owned by exactly one user
type Todo struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Done      bool      `json:"done"`
	UserID    int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TodoView is the public projection of a Todo.
type TodoView struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// Serialize projects the todo to its public fields.
func (t Todo) Serialize() TodoView {
	return TodoView{ID: t.ID, Label: t.Label, Done: t.Done}
}

// TaskInput is one element of a replace-tasks request. Pointers tell an
// absent field apart from its zero value.
type TaskInput struct {
	Label *string `json:"label"`
	Done  *bool   `json:"done"`
}
