package actor

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/shaiso/Actors/internal/port"
)

// Client — доменный объект, которым управляет актор.
//
// Update продвигает внутреннее состояние на один такт.
// Update не должен блокироваться.
type Client interface {
	Update()
}

// Reader — клиент, принимающий данные портов.
//
// Read вызывается по одному разу на каждый вход за такт.
// Порядок чтения разных портов внутри такта не определён.
type Reader interface {
	Client
	Read(d *port.Data)
}

// Writer — клиент, выдающий данные портов.
//
// Write возвращает false, чтобы закончить поток этого порта.
type Writer interface {
	Client
	Write(id port.ID) (*port.Data, bool)
}

// Sizer — клиент, объявляющий число элементов порта.
// Размер используется только для статической проверки соединений;
// 0 означает «не объявлен».
type Sizer interface {
	Size(id port.ID) int
}

// Namer — клиент со своим именем для логов и графа.
type Namer interface {
	Name() string
}

// Shared — разделяемый дескриптор клиента.
//
// Все обращения к клиенту (Update, Read, Write) сериализуются мьютексом,
// поэтому один клиент можно безопасно отдать нескольким акторам.
// Каждый актор обращается к своему клиенту только через Shared.
type Shared struct {
	mu     sync.Mutex
	client Client
}

// Share оборачивает клиента в разделяемый дескриптор.
// Повторный вызов для *Shared возвращает его же.
func Share(c Client) *Shared {
	if s, ok := c.(*Shared); ok {
		return s
	}
	return &Shared{client: c}
}

// Client возвращает обёрнутого клиента.
//
// Прямой доступ к клиенту во время работы модели
// должен выполняться через Lock.
func (s *Shared) Client() Client {
	return s.client
}

// Lock выполняет fn под мьютексом клиента.
func (s *Shared) Lock(fn func(c Client)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.client)
}

// Update реализует Client.
func (s *Shared) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.Update()
}

// CanRead проверяет, что клиент реализует Reader.
func (s *Shared) CanRead() bool {
	_, ok := s.client.(Reader)
	return ok
}

// CanWrite проверяет, что клиент реализует Writer.
func (s *Shared) CanWrite() bool {
	_, ok := s.client.(Writer)
	return ok
}

// size возвращает объявленный размер порта (0 — не объявлен).
func (s *Shared) size(id port.ID) int {
	sz, ok := s.client.(Sizer)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sz.Size(id)
}

// name возвращает имя клиента: Name() или имя типа.
func (s *Shared) name() string {
	if n, ok := s.client.(Namer); ok {
		return n.Name()
	}
	name := fmt.Sprintf("%T", s.client)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// update вызывает Update, превращая panic в ошибку.
func (s *Shared) update() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer recoverClient(&err, "Update", "")
	s.client.Update()
	return nil
}

// read передаёт конверт клиенту.
func (s *Shared) read(d *port.Data) (err error) {
	r, ok := s.client.(Reader)
	if !ok {
		return ErrNotReader
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer recoverClient(&err, "Read", d.Port().Name())
	r.Read(d)
	return nil
}

// write запрашивает у клиента значение порта.
func (s *Shared) write(id port.ID) (d *port.Data, ok bool, err error) {
	w, isWriter := s.client.(Writer)
	if !isWriter {
		return nil, false, ErrNotWriter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer recoverClient(&err, "Write", id.Name())
	d, ok = w.Write(id)
	return d, ok, nil
}

func recoverClient(err *error, call, portName string) {
	if r := recover(); r != nil {
		*err = &ClientPanicError{
			Call:  call,
			Port:  portName,
			Value: r,
			Stack: debug.Stack(),
		}
	}
}
