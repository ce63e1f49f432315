package pomomo

// Optional holds a value that may be absent. The zero value is empty.
type Optional[T any] struct {
	val T
	ok  bool
}

func Some[T any](val T) Optional[T] {
	return Optional[T]{val: val, ok: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Value returns the held value and whether there is one.
func (o Optional[T]) Value() (T, bool) {
	return o.val, o.ok
}
