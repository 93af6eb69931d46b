package registry

// Receiver is a named participant entitled to a proportional slice of every
// emission. Accrued holds funds already checkpointed in but not yet claimed.
type Receiver struct {
	ID      uint64
	Name    string
	Share   uint64
	Accrued uint64
}

// Registry is an ordered collection of receivers. The sum of all receivers'
// Share always equals TotalShares, and ids are assigned sequentially and
// never reused, even after removal.
//
// All fields are exported for snapshot encoding; callers mutate the registry
// only through its methods.
type Registry struct {
	Receivers   []*Receiver
	TotalShares uint64
	NextID      uint64
}

// New returns an empty registry. The first assigned receiver id is 1.
func New() *Registry {
	return &Registry{NextID: 1}
}

// find returns the index and record for the given id, or -1 if unknown.
// The receiver set is admin-managed and moderate in size, so a linear scan
// is fine.
func (rg *Registry) find(id uint64) (int, *Receiver) {
	for i := range rg.Receivers {
		if rg.Receivers[i].ID == id {
			return i, rg.Receivers[i]
		}
	}
	return -1, nil
}

// Get returns the receiver with the given id.
func (rg *Registry) Get(id uint64) (*Receiver, error) {
	_, r := rg.find(id)
	if r == nil {
		return nil, ErrReceiverNotFound
	}
	return r, nil
}

// Len returns the number of active receivers.
func (rg *Registry) Len() int { return len(rg.Receivers) }

// Clone returns a deep copy of the registry.
func (rg *Registry) Clone() *Registry {
	cpy := &Registry{
		Receivers:   make([]*Receiver, len(rg.Receivers)),
		TotalShares: rg.TotalShares,
		NextID:      rg.NextID,
	}
	for i, r := range rg.Receivers {
		c := *r
		cpy.Receivers[i] = &c
	}
	return cpy
}
