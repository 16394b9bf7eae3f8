package resource

// Handle is an index into a Table. Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies a lifecycle transition.
type EventType uint8

const (
	EventWrapped EventType = iota
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventWrapped:
		return "wrapped"
	case EventReleased:
		return "released"
	}
	return "unknown"
}

// Event represents a resource lifecycle event.
type Event struct {
	Value   any
	Class   string
	Handle  Handle
	ClassID uint32
	Type    EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is optionally implemented by native values that own memory or
// other resources. Drop runs exactly once, when the handle is released.
type Dropper interface {
	Drop()
}
