package document

import "sync"

// DefaultFunc injects server defaults into a freshly created object.
type DefaultFunc func(*Document)

var (
	defaultsMu sync.RWMutex
	defaults   = map[string]DefaultFunc{}
)

// RegisterDefaults maps an object type to a default-value-injection
// function applied once, when the object is first added.
func RegisterDefaults(objectType string, fn DefaultFunc) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults[objectType] = fn
}

// ApplyDefaults runs the registered injector for the document's type, if any.
func ApplyDefaults(d *Document) {
	defaultsMu.RLock()
	fn := defaults[d.ObjectType]
	defaultsMu.RUnlock()
	if fn != nil {
		fn(d)
	}
}
