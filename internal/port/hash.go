package port

import "github.com/cespare/xxhash/v2"

// Hash возвращает контентный хэш строки.
func Hash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// WireHash вычисляет хэш соединения для выхода owner[id].
//
// Хэш записывается на стороне выхода один раз на каждого получателя
// и один раз на стороне каждого входа. Model сравнивает суммы.
func WireHash(owner string, id ID) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(owner)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(id.name)
	return d.Sum64()
}
