package actor

import (
	"fmt"

	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/port"
)

// Sampler — клиент перехода между частотами.
//
// Хранит последнее прочитанное значение и выдаёт его при каждом Write.
// До первого Read выдаётся port.Zero, поэтому затравка выхода
// сэмплера тоже отправляет значение.
// С частотами InRate < OutRate актор читает k значений на одну
// отправку (децимация), с InRate > OutRate отправляет одно значение
// k раз (удержание).
type Sampler struct {
	id    port.ID
	value *port.Data
}

// Update реализует Client.
func (s *Sampler) Update() {}

// Read запоминает последнее значение порта.
func (s *Sampler) Read(d *port.Data) {
	if d.Port() == s.id {
		s.value = d
	}
}

// Write выдаёт удерживаемое значение.
func (s *Sampler) Write(id port.ID) (*port.Data, bool) {
	if id != s.id {
		return nil, false
	}
	if s.value == nil {
		return port.Zero(id), true
	}
	return s.value, true
}

// SamplerName возвращает имя сэмплера между выходом output актора from
// и потребителем: sampler_<from>_<output>_<in>r<out>.
func SamplerName(from, output string, inRate, outRate int) string {
	return fmt.Sprintf("sampler_%s_%s_%dr%d", from, output, inRate, outRate)
}

// NewSampler создаёт актор-сэмплер name для порта id.
//
// Имя задаёт хэши проводов, поэтому оно обязательно и должно быть
// уникально в модели (см. SamplerName).
func NewSampler(name string, id port.ID, inRate, outRate int, opts ...Option) (*Actor, error) {
	if name == "" {
		return nil, &Error{Port: id.Name(), Err: ErrUnnamedSampler}
	}
	base := []Option{
		WithName(name),
		WithKind(graph.KindSampler),
		WithLabel(SamplerLabel(inRate, outRate)),
	}
	return New(&Sampler{id: id}, inRate, outRate, append(base, opts...)...)
}

// SamplerLabel возвращает подпись сэмплера на диаграмме.
func SamplerLabel(inRate, outRate int) string {
	if inRate > outRate {
		return "upsampling"
	}
	return "downsampling"
}
