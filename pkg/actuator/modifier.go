package actuator

// Modifier identifies an auxiliary key held during an actuation to change its
// rate (e.g. a coarse or fine multiplier). The zero value means no modifier.
type Modifier struct {
	name string
}

// NoModifier is the zero Modifier.
var NoModifier = Modifier{}

// Named returns a Modifier for the given key name. An empty name yields
// NoModifier.
func Named(name string) Modifier {
	return Modifier{name: name}
}

func (m Modifier) IsNone() bool {
	return m.name == ""
}

// Name returns the key name, or "" for NoModifier.
func (m Modifier) Name() string {
	return m.name
}

func (m Modifier) String() string {
	if m.IsNone() {
		return "none"
	}
	return m.name
}
