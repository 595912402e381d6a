package task

import (
	"context"
	"time"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status   Status
	Priority Priority
	// Search matches case-insensitively against title OR description.
	Search string
	// Overdue, when set, restricts to due_date < now AND status != done
	// (true) or due_date >= now OR due_date IS NULL (false).
	Overdue *bool
	Limit   int
	Offset  int
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id int64) (*Task, error)
	// List returns tasks ordered by created_at descending.
	List(ctx context.Context, f Filter) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
	// FindByTitle resolves a case-insensitive substring match against title,
	// preferring the most recently created task when several match.
	FindByTitle(ctx context.Context, substr string) (*Task, error)
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}
