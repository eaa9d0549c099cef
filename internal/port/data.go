package port

import "fmt"

// Data — конверт с данными одного тика.
//
// Один и тот же *Data раздаётся всем получателям выхода,
// поэтому после отправки значение считается неизменяемым.
type Data struct {
	port  ID
	value any
}

// NewData создаёт конверт для порта id.
func NewData(id ID, value any) *Data {
	return &Data{port: id, value: value}
}

// Zero возвращает нулевой конверт порта id.
// Им клиенты-посредники отвечают на Write до первого Read.
func Zero(id ID) *Data {
	return &Data{port: id, value: float64(0)}
}

// Port возвращает порт, которому принадлежит конверт.
func (d *Data) Port() ID {
	return d.port
}

// Value возвращает нетипизированное значение.
func (d *Data) Value() any {
	return d.value
}

// Retag возвращает конверт с тем же значением, но другим портом.
// Используется клиентами-посредниками (Sampler, Gateway).
func (d *Data) Retag(id ID) *Data {
	if d.port == id {
		return d
	}
	return &Data{port: id, value: d.value}
}

// String реализует fmt.Stringer.
func (d *Data) String() string {
	return fmt.Sprintf("%s=%v", d.port.name, d.value)
}

// Value извлекает значение типа T из конверта.
func Value[T any](d *Data) (T, bool) {
	var zero T
	if d == nil {
		return zero, false
	}
	v, ok := d.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Float извлекает числовое значение как float64.
// Поддерживает float64, float32, int, int64 и срезы из одного элемента.
func Float(d *Data) (float64, bool) {
	if d == nil {
		return 0, false
	}
	switch v := d.value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case []float64:
		if len(v) == 1 {
			return v[0], true
		}
	}
	return 0, false
}

// Floats извлекает значение как []float64.
// Скаляры возвращаются срезом из одного элемента.
func Floats(d *Data) ([]float64, bool) {
	if d == nil {
		return nil, false
	}
	if v, ok := d.value.([]float64); ok {
		return v, true
	}
	if f, ok := Float(d); ok {
		return []float64{f}, true
	}
	return nil, false
}
