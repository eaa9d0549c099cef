package clients

import (
	"sync"
	"time"

	"github.com/shaiso/Actors/internal/actor"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/port"
)

// Logging — приёмник телеметрии.
//
// Копит значения всех входов в памяти. Шаг считается отдельно
// для каждого порта. Накопленные отсчёты забирают после Wait
// (Samples или Drain) и сбрасывают в хранилище.
type Logging struct {
	name string
	rate int
	now  func() time.Time

	mu      sync.Mutex
	steps   map[string]int
	samples []domain.Sample
}

// NewLogging создаёт приёмник с именем name для частоты rate.
func NewLogging(name string, rate int) *Logging {
	return &Logging{
		name:  name,
		rate:  rate,
		now:   time.Now,
		steps: make(map[string]int),
	}
}

// Name возвращает имя приёмника.
func (l *Logging) Name() string {
	return l.name
}

// Rate возвращает частоту приёмника.
func (l *Logging) Rate() int {
	return l.rate
}

// Update реализует actor.Client.
func (l *Logging) Update() {}

// Read записывает значение порта.
// Значения, не приводимые к числам, пропускаются.
func (l *Logging) Read(d *port.Data) {
	values, ok := port.Floats(d)
	if !ok {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	name := d.Port().Name()
	step := l.steps[name]
	l.steps[name] = step + 1
	l.samples = append(l.samples, domain.Sample{
		Sink:   l.name,
		Port:   name,
		Step:   step,
		Values: append([]float64(nil), values...),
		At:     l.now(),
	})
}

// Len возвращает количество накопленных отсчётов.
func (l *Logging) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Samples возвращает копию накопленных отсчётов.
func (l *Logging) Samples() []domain.Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Sample(nil), l.samples...)
}

// Series возвращает значения одного порта по шагам.
func (l *Logging) Series(portName string) [][]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out [][]float64
	for _, s := range l.samples {
		if s.Port == portName {
			out = append(out, s.Values)
		}
	}
	return out
}

// Drain забирает накопленные отсчёты и очищает буфер.
func (l *Logging) Drain() []domain.Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.samples
	l.samples = nil
	return out
}

func newLoggingFromParams(name string, p Params) (actor.Client, error) {
	return NewLogging(name, p.Int("rate", 1)), nil
}
