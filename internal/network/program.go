package network

import (
	"fmt"
	"strings"

	"github.com/shaiso/Actors/internal/domain"
)

// Виды объявлений акторов.
const (
	KindClient  = "client"
	KindSystem  = "system"
	KindSampler = "sampler"
	KindLogger  = "logger"
	KindScope   = "scope"
)

// Program — результат компиляции сети: акторы, соединения и модель.
//
// Одинаковый текст даёт одинаковую Program.
type Program struct {
	Model  ModelDecl   `json:"model"`
	Actors []ActorDecl `json:"actors"`
	Wires  []Wire      `json:"wires"`
}

// ModelDecl — объявление модели.
type ModelDecl struct {
	Name      string            `json:"name"`
	State     domain.ModelState `json:"state"`
	Flowchart string            `json:"flowchart"`
	Actors    []string          `json:"actors"`
}

// ActorDecl — объявление актора.
//
// Для клиентов и систем Name совпадает с именем привязки.
type ActorDecl struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Label   string `json:"label,omitempty"`
	Shared  bool   `json:"shared,omitempty"`
	InRate  int    `json:"in_rate"`
	OutRate int    `json:"out_rate"`
	Port    string `json:"port,omitempty"` // порт сэмплера или осциллографа
}

// Wire — соединение Output производителя с потребителем.
type Wire struct {
	From      string `json:"from"`
	Output    string `json:"output"`
	To        string `json:"to"`
	Bootstrap bool   `json:"bootstrap,omitempty"`
	Unbounded bool   `json:"unbounded,omitempty"`
}

// Actor возвращает объявление по имени.
func (p *Program) Actor(name string) (ActorDecl, bool) {
	for _, a := range p.Actors {
		if a.Name == name {
			return a, true
		}
	}
	return ActorDecl{}, false
}

// String печатает программу в читаемом виде.
func (p *Program) String() string {
	var b strings.Builder
	for _, a := range p.Actors {
		fmt.Fprintf(&b, "%-8s %s: in=%d out=%d", a.Kind, a.Name, a.InRate, a.OutRate)
		if a.Label != "" {
			fmt.Fprintf(&b, " label=%q", a.Label)
		}
		if a.Shared {
			b.WriteString(" shared")
		}
		b.WriteByte('\n')
	}
	for _, w := range p.Wires {
		fmt.Fprintf(&b, "wire     %s[%s] -> %s", w.From, w.Output, w.To)
		if w.Bootstrap {
			b.WriteString(" bootstrap")
		}
		if w.Unbounded {
			b.WriteString(" unbounded")
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "model    %s(%s) state=%s flowchart=%s\n",
		p.Model.Name, strings.Join(p.Model.Actors, ", "),
		strings.ToLower(p.Model.State.String()), p.Model.Flowchart)
	return b.String()
}
