package ecs

// System is a behavior that runs once per frame. Systems hold their own
// state between frames and find the entities they work on by querying the
// manager through frame.Manager.
//
// Systems are compared by identity, so they should be pointers.
type System interface {
	Update(frame *UpdateFrame)
}

// Initializer is implemented by systems that need one-time setup. Initialize
// runs once, right before the first Update of the first frame in which the
// system is registered and enabled.
type Initializer interface {
	Initialize(frame *UpdateFrame)
}

// Toggler is implemented by systems that can be switched off without being
// unregistered. Systems that do not implement it are always enabled.
type Toggler interface {
	Enabled() bool
}

// InterestFilter narrows the entities a system cares about. The manager does
// not apply it on its own; see Manager.Interesting.
type InterestFilter interface {
	IsInterestedIn(e *Entity) bool
}

// Namer lets a system choose the name used in stats and logs. By default the
// name of the system's Go type is used.
type Namer interface {
	Name() string
}

// BaseSystem can be embedded to get a runtime enabled flag.
type BaseSystem struct {
	Disabled bool
}

// Enabled reports whether the system should run this frame.
func (b *BaseSystem) Enabled() bool {
	return !b.Disabled
}

// SetEnabled toggles the system. Re-enabling never re-runs Initialize.
func (b *BaseSystem) SetEnabled(enabled bool) {
	b.Disabled = !enabled
}
