package actor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/port"
)

// Output — выход актора: один порт, раздаваемый нескольким входам.
type Output struct {
	id        port.ID
	client    *Shared
	links     []link
	hash      uint64
	bootstrap bool
}

// Port возвращает порт выхода.
func (o *Output) Port() port.ID {
	return o.id
}

// Len возвращает число получателей.
func (o *Output) Len() int {
	return len(o.links)
}

// Bootstrapped проверяет, что выход затравливается.
func (o *Output) Bootstrapped() bool {
	return o.bootstrap
}

// send запрашивает значение у клиента и раздаёт его всем получателям.
//
// Один конверт разделяется всеми получателями. Если клиент не выдал
// значение, все каналы закрываются и возвращается ErrNoData.
func (o *Output) send(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrDropSend
	}

	d, ok, err := o.client.write(o.id)
	if err != nil {
		return err
	}
	if !ok || d == nil {
		o.close()
		return ErrNoData
	}
	d = d.Retag(o.id)

	if len(o.links) == 1 {
		return o.links[0].send(ctx, d)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range o.links {
		g.Go(func() error {
			return l.send(gctx, d)
		})
	}
	return g.Wait()
}

// close закрывает все каналы выхода (конец потока).
func (o *Output) close() {
	for _, l := range o.links {
		l.close()
	}
}

func (o *Output) ioNode() graph.IO {
	return graph.IO{Port: o.id.Name(), Hash: o.hash, Bootstrap: o.bootstrap}
}

// Input — вход актора: единственный отправитель.
type Input struct {
	id     port.ID
	client *Shared
	link   link
	hash   uint64
}

// Port возвращает порт входа.
func (i *Input) Port() port.ID {
	return i.id
}

// recv ждёт следующий конверт и передаёт его клиенту.
func (i *Input) recv(ctx context.Context) error {
	d, err := i.link.recv(ctx)
	if err != nil {
		return err
	}
	return i.client.read(d)
}

func (i *Input) ioNode() graph.IO {
	return graph.IO{Port: i.id.Name(), Hash: i.hash, Unbounded: i.link.unbounded()}
}
