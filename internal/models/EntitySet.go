package models

// EntitySet is the current record of every world seen in a fetch, keyed by id.
// Iteration follows the order ids were first added.
type EntitySet struct {
	order []string
	items map[string]Snapshot
}

func NewEntitySet() *EntitySet {
	return &EntitySet{items: make(map[string]Snapshot)}
}

// Put stores s under its id, replacing any earlier record without moving its position.
func (e *EntitySet) Put(s Snapshot) {
	if _, ok := e.items[s.ID]; !ok {
		e.order = append(e.order, s.ID)
	}
	e.items[s.ID] = s
}

func (e *EntitySet) Get(id string) (Snapshot, bool) {
	s, ok := e.items[id]
	return s, ok
}

func (e *EntitySet) Len() int {
	return len(e.order)
}

func (e *EntitySet) IDs() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

func (e *EntitySet) Values() []Snapshot {
	out := make([]Snapshot, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.items[id])
	}
	return out
}
