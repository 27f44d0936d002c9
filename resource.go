package hsm

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Resource is any releasable object scoped to either a state or a machine.
// Timers (After, Every) are the canonical implementation.
type Resource interface {
	// Name is the resource's unique key within its owning ResourceManager.
	Name() string
	// Release tears the resource down. Called once, either when the owning
	// state is exited or when the owning machine terminates.
	Release() error
}

// ResourceManager is an ordered keyed container of releasable objects.
// Release order is registration order, so it is built on
// github.com/wk8/go-ordered-map/v2 rather than a plain Go map, which gives
// no iteration-order guarantee.
type ResourceManager struct {
	resources *orderedmap.OrderedMap[string, Resource]
	logger    Logger
}

// NewResourceManager constructs an empty ResourceManager. Logging defaults
// to NopLogger; SetLogger attaches a real sink once the owning
// state/machine has one configured.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		resources: orderedmap.New[string, Resource](),
		logger:    NopLogger{},
	}
}

// SetLogger attaches the logger release errors are reported to.
func (rm *ResourceManager) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	rm.logger = l
}

// Register inserts r keyed by r.Name(). A duplicate name within the same
// manager is a configuration error.
func (rm *ResourceManager) Register(r Resource) error {
	if _, exists := rm.resources.Get(r.Name()); exists {
		return NewConfigurationError("ResourceManager", "duplicate resource name \""+r.Name()+"\"")
	}
	rm.resources.Set(r.Name(), r)
	return nil
}

// Unregister removes a resource by name without releasing it. A missing
// name is a lookup error.
func (rm *ResourceManager) Unregister(name string) error {
	if _, exists := rm.resources.Get(name); !exists {
		return NewLookupError("ResourceManager", "", name)
	}
	rm.resources.Delete(name)
	return nil
}

// Get looks up a resource by name.
func (rm *ResourceManager) Get(name string) (Resource, bool) {
	return rm.resources.Get(name)
}

// Len reports how many resources are currently registered.
func (rm *ResourceManager) Len() int {
	return rm.resources.Len()
}

// ReleaseAll invokes Release on every member in registration order, then
// empties the container. A failing Release is reported to the logger and
// does not prevent subsequent releases.
func (rm *ResourceManager) ReleaseAll() {
	for pair := rm.resources.Oldest(); pair != nil; pair = pair.Next() {
		if err := pair.Value.Release(); err != nil {
			rm.logger.Errorf("hsm: resource %q release failed: %v", pair.Key, err)
		}
	}
	rm.resources = orderedmap.New[string, Resource]()
}
