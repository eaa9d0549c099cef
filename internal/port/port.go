package port

// ID — идентификатор логического канала.
//
// Сравним через ==, пригоден как ключ map.
type ID struct {
	name string
	hash uint64
}

// Named создаёт идентификатор порта по имени.
func Named(name string) ID {
	return ID{name: name, hash: Hash(name)}
}

// Name возвращает имя порта.
func (id ID) Name() string {
	return id.name
}

// Hash возвращает структурный хэш порта.
func (id ID) Hash() uint64 {
	return id.hash
}

// IsZero проверяет, что идентификатор не задан.
func (id ID) IsZero() bool {
	return id.name == ""
}

// String реализует fmt.Stringer.
func (id ID) String() string {
	return id.name
}

// Port — типизированный порт.
//
// T — тип значения, которое передаётся по каналу.
// Типизация работает только на уровне Go API (Wrap/Get):
// на проводе все порты одинаковы и различаются только по ID.
type Port[T any] struct {
	id ID
}

// New создаёт типизированный порт.
func New[T any](name string) Port[T] {
	return Port[T]{id: Named(name)}
}

// ID возвращает нетипизированный идентификатор порта.
func (p Port[T]) ID() ID {
	return p.id
}

// Name возвращает имя порта.
func (p Port[T]) Name() string {
	return p.id.name
}

// Wrap упаковывает значение в конверт этого порта.
func (p Port[T]) Wrap(v T) *Data {
	return NewData(p.id, v)
}

// Get извлекает значение из конверта.
// Возвращает false, если конверт принадлежит другому порту или тип не совпадает.
func (p Port[T]) Get(d *Data) (T, bool) {
	var zero T
	if d == nil || d.port != p.id {
		return zero, false
	}
	return Value[T](d)
}

// Is проверяет, что id совпадает с этим портом.
func (p Port[T]) Is(id ID) bool {
	return p.id == id
}
