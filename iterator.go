package libsandbox

type StringIterator interface {
	Len() int32
	HasNext() bool
	Next() string
}

type Int32Iterator interface {
	Len() int32
	HasNext() bool
	Next() int32
}

type Int64Iterator interface {
	HasNext() bool
	Next() int64
}

var (
	_ StringIterator = (*iterator[string])(nil)
	_ Int32Iterator  = (*iterator[int32])(nil)
	_ Int64Iterator  = (*iterator[int64])(nil)
)

type iterator[T any] struct {
	values []T
}

func newIterator[T any](values []T) *iterator[T] {
	return &iterator[T]{values}
}

func (i *iterator[T]) Len() int32 {
	return int32(len(i.values))
}

func (i *iterator[T]) HasNext() bool {
	return len(i.values) > 0
}

func (i *iterator[T]) Next() T {
	if len(i.values) == 0 {
		var defaultValue T
		return defaultValue
	}
	nextValue := i.values[0]
	i.values = i.values[1:]
	return nextValue
}

func int64Values(iterator Int64Iterator) []int64 {
	if iterator == nil {
		return nil
	}
	var values []int64
	for iterator.HasNext() {
		values = append(values, iterator.Next())
	}
	return values
}
