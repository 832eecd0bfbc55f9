package model

import (
	"context"

	"github.com/taskhive/taskhive/principal"
)

// Task is the canonical consumer of the generic access layer.
type Task struct {
	ID    int64  `bun:"id" json:"id"`
	Title string `bun:"title" json:"title"`
}

// Columns lists the declared columns of Task.
func (Task) Columns() []string {
	return []string{"id", "title"}
}

// TaskForCreate carries the fields settable at creation.
type TaskForCreate struct {
	Title string `json:"title"`
}

// Fields lists the set fields of the changeset.
func (c TaskForCreate) Fields() []Field {
	return []Field{{Column: "title", Value: c.Title}}
}

// TaskForUpdate carries the optional fields of a partial update.
type TaskForUpdate struct {
	Title *string `json:"title,omitempty"`
}

// Fields lists only the fields the caller set.
func (u TaskForUpdate) Fields() []Field {
	fields := make([]Field, 0, 1)
	if u.Title != nil {
		fields = append(fields, Field{Column: "title", Value: *u.Title})
	}
	return fields
}

type taskTable struct{}

func (taskTable) Table() string { return "task" }

// TaskStore exposes CRUD over tasks through the generic access layer.
type TaskStore struct {
	mm *Manager
}

// NewTaskStore creates a TaskStore bound to the manager.
func NewTaskStore(mm *Manager) *TaskStore {
	return &TaskStore{mm: mm}
}

func (s *TaskStore) Create(ctx context.Context, pr principal.Context, data TaskForCreate) (int64, error) {
	return Create(ctx, pr, s.mm, taskTable{}, data)
}

func (s *TaskStore) Get(ctx context.Context, pr principal.Context, id int64) (Task, error) {
	return Get[Task](ctx, pr, s.mm, taskTable{}, id)
}

func (s *TaskStore) List(ctx context.Context, pr principal.Context, filter Filter, opts *ListOptions) ([]Task, error) {
	return List[Task](ctx, pr, s.mm, taskTable{}, filter, opts)
}

func (s *TaskStore) Update(ctx context.Context, pr principal.Context, id int64, data TaskForUpdate) error {
	return Update(ctx, pr, s.mm, taskTable{}, id, data)
}

func (s *TaskStore) Delete(ctx context.Context, pr principal.Context, id int64) error {
	return Delete(ctx, pr, s.mm, taskTable{}, id)
}
