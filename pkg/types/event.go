package types

// Kind names the category of diagnostics carried by an Event.
type Kind string

const (
	KindWarnings Kind = "warnings"
	KindErrors   Kind = "errors"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindWarnings || k == KindErrors
}

// Event is the JSON envelope sent to every subscriber:
//
//	{"type": "warnings", "data": ["..."]}
type Event struct {
	Type Kind     `json:"type"`
	Data []string `json:"data"`
}

// NewEvent builds an Event owning a copy of items. Data is never nil so an
// empty diagnostic list encodes as [] rather than null.
func NewEvent(kind Kind, items []string) Event {
	data := make([]string, len(items))
	copy(data, items)
	return Event{Type: kind, Data: data}
}
