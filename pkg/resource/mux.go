package resource

// Mux routes each address to the context registered for its type.
type Mux struct {
	routes [addressTypeCount]Context
}

// NewMux creates an empty router.
func NewMux() *Mux {
	return &Mux{}
}

// Handle registers c for addresses of type t.
func (m *Mux) Handle(t AddressType, c Context) *Mux {
	m.routes[t] = c
	return m
}

func (m *Mux) route(op string, addr Address, size int) (Context, error) {
	t := addr.Type()
	if t >= addressTypeCount || m.routes[t] == nil {
		return nil, unresolvable(op, addr, size, "no context for "+t.String()+" space")
	}
	return m.routes[t], nil
}

// Resolve implements Context.
func (m *Mux) Resolve(addr Address, size int) ([]byte, error) {
	c, err := m.route("resolve", addr, size)
	if err != nil {
		return nil, err
	}
	return c.Resolve(addr, size)
}

// Allocate implements Context.
func (m *Mux) Allocate(space AddressType, size, align int) (Address, error) {
	c, err := m.route("allocate", NewAddress(space, 0), size)
	if err != nil {
		return Null, err
	}
	return c.Allocate(space, size, align)
}

// Write implements Context.
func (m *Mux) Write(addr Address, p []byte) error {
	c, err := m.route("write", addr, len(p))
	if err != nil {
		return err
	}
	return c.Write(addr, p)
}
