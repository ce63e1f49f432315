package pomomo

import "time"

// ExistingRecord carries the columns every persisted row has besides its
// payload. Timestamps are kept at second precision, which is what the
// store round-trips.
type ExistingRecord[T ~string] struct {
	ID        T
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewExistingRecord[T ~string](id T) ExistingRecord[T] {
	now := recordNow()
	return ExistingRecord[T]{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt.
func (r *ExistingRecord[T]) Touch() {
	r.UpdatedAt = recordNow()
}

func recordNow() time.Time {
	return time.Now().Truncate(time.Second)
}
