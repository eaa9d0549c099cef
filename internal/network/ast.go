package network

// Script — разобранный текст сети до разрешения частот.
type Script struct {
	Attrs []Attr
	Flows []Flow
}

// Attr — пара ключ/значение из #[model(...)].
type Attr struct {
	Key   string
	Value string
	Pos   Pos
}

// Flow — цепочка `rate: pair -> pair -> ...`.
type Flow struct {
	Rate  int
	Pairs []Pair
	Pos   Pos
}

// Pair — клиент с необязательным выходом: &name("label")[Output]!$..~
type Pair struct {
	Client string
	Shared bool
	Label  string
	Output *OutputRef
	Pos    Pos
}

// OutputRef — выход клиента и его флаги.
type OutputRef struct {
	Name      string
	Bootstrap bool // !
	Logging   bool // $
	Unbounded bool // ..
	Scope     bool // ~
}
