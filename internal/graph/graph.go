package graph

import (
	"sort"
)

// Вид узла графа.
const (
	KindInitiator  = "initiator"
	KindTerminator = "terminator"
	KindFilter     = "filter"
	KindSampler    = "sampler"
	KindGateway    = "gateway"
	KindUnknown    = "unknown"
)

// IO — статическое описание одного входа или выхода актора.
type IO struct {
	// Port — имя порта.
	Port string `json:"port"`

	// Hash — хэш соединения. Выход и вход одного соединения имеют равные хэши.
	Hash uint64 `json:"hash"`

	// Bootstrap — выход затравливается до начала цикла.
	Bootstrap bool `json:"bootstrap,omitempty"`

	// Unbounded — вход получает данные по неограниченному каналу.
	Unbounded bool `json:"unbounded,omitempty"`
}

// Node — узел графа: один актор.
type Node struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Kind    string `json:"kind"`
	Group   string `json:"group,omitempty"` // имя System, если актор принадлежит ей
	InRate  int    `json:"in_rate"`
	OutRate int    `json:"out_rate"`
	Inputs  []IO   `json:"inputs,omitempty"`
	Outputs []IO   `json:"outputs,omitempty"`
}

// Edge — направленное ребро: выход одного актора к входу другого.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Port      string `json:"port"`
	Bootstrap bool   `json:"bootstrap,omitempty"`
	Unbounded bool   `json:"unbounded,omitempty"`
}

// Graph — список узлов и рёбер модели.
//
// Рёбра выводятся из статических метаданных: выход и вход
// соединены, если их хэши совпадают.
type Graph struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// New строит граф из узлов.
func New(name string, nodes []Node) *Graph {
	g := &Graph{
		Name:  name,
		Nodes: nodes,
		Edges: make([]Edge, 0),
	}

	// Индекс входов по хэшу: хэш → (узел, вход)
	type target struct {
		node string
		io   IO
	}
	inputs := make(map[uint64][]target)
	for _, n := range nodes {
		for _, in := range n.Inputs {
			inputs[in.Hash] = append(inputs[in.Hash], target{node: n.Name, io: in})
		}
	}

	for _, n := range nodes {
		for _, out := range n.Outputs {
			for _, t := range inputs[out.Hash] {
				g.Edges = append(g.Edges, Edge{
					From:      n.Name,
					To:        t.node,
					Port:      out.Port,
					Bootstrap: out.Bootstrap,
					Unbounded: t.io.Unbounded,
				})
			}
		}
	}

	return g
}

// Node возвращает узел по имени.
func (g *Graph) Node(name string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// TopologicalOrder возвращает порядок узлов по алгоритму Кана.
// Возвращает ErrCyclic, если в графе есть цикл.
func (g *Graph) TopologicalOrder() ([]string, error) {
	order, rest := g.kahn(func(Edge) bool { return true })
	if len(rest) > 0 {
		return nil, ErrCyclic
	}
	return order, nil
}

// UnbootstrappedCycle возвращает узлы, которые образуют обратную связь
// без затравленного выхода. Такая модель зависнет на первом такте.
//
// Затравленные рёбра исключаются из анализа: они разрывают цикл.
// Пустой результат означает отсутствие проблемных циклов.
func (g *Graph) UnbootstrappedCycle() []string {
	_, rest := g.kahn(func(e Edge) bool { return !e.Bootstrap })
	return rest
}

// kahn выполняет топологическую сортировку по рёбрам, прошедшим фильтр.
// Возвращает упорядоченные узлы и узлы, оставшиеся в циклах
// (или зависящие от них).
func (g *Graph) kahn(keep func(Edge) bool) (order, rest []string) {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		inDegree[n.Name] = 0
	}

	// Дубликаты рёбер (мультиплекс одного выхода) считаем один раз
	seen := make(map[[2]string]bool)
	for _, e := range g.Edges {
		if !keep(e) {
			continue
		}
		key := [2]string{e.From, e.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		dependents[e.From] = append(dependents[e.From], e.To)
		inDegree[e.To]++
	}

	queue := make([]string, 0)
	for _, n := range g.Nodes {
		if inDegree[n.Name] == 0 {
			queue = append(queue, n.Name)
		}
	}

	order = make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) == len(g.Nodes) {
		return order, nil
	}

	done := make(map[string]bool, len(order))
	for _, name := range order {
		done[name] = true
	}
	for _, n := range g.Nodes {
		if !done[n.Name] {
			rest = append(rest, n.Name)
		}
	}
	sort.Strings(rest)
	return order, rest
}
