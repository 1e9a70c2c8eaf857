package bundle

import (
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry indexes discovered bundles.
type Registry struct {
	sync.RWMutex
	bundles    map[string]*Bundle   // name -> bundle
	byPlatform map[string][]*Bundle // os/arch -> bundles
	logger     *zap.Logger
}

// NewRegistry creates a new bundle registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		bundles:    make(map[string]*Bundle),
		byPlatform: make(map[string][]*Bundle),
		logger:     logger.With(zap.String("component", "bundle-registry")),
	}
}

// Register adds a bundle to the registry.
func (r *Registry) Register(b *Bundle) error {
	r.Lock()
	defer r.Unlock()

	name := b.Manifest.Name

	if _, exists := r.bundles[name]; exists {
		return &BundleAlreadyRegisteredError{BundleName: name}
	}

	r.bundles[name] = b

	platforms := b.Platforms()
	for _, p := range platforms {
		r.byPlatform[p] = append(r.byPlatform[p], b)
	}

	r.logger.Info("Bundle registered",
		zap.String("name", name),
		zap.Strings("platforms", platforms),
	)

	return nil
}

// Get retrieves a bundle by name.
func (r *Registry) Get(name string) (*Bundle, bool) {
	r.RLock()
	defer r.RUnlock()

	b, ok := r.bundles[name]
	return b, ok
}

// LookupByPlatform returns the bundles with a library for platform in
// registration order.
func (r *Registry) LookupByPlatform(platform string) []*Bundle {
	r.RLock()
	defer r.RUnlock()

	bundles, ok := r.byPlatform[platform]
	if !ok || len(bundles) == 0 {
		return []*Bundle{}
	}
	result := make([]*Bundle, len(bundles))
	copy(result, bundles)
	return result
}

// List returns all registered bundles sorted by name.
func (r *Registry) List() []*Bundle {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Bundle, 0, len(r.bundles))
	for _, b := range r.bundles {
		result = append(result, b)
	}
	slices.SortFunc(result, func(a, b *Bundle) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return result
}

// Unregister removes a bundle from the registry.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	b, ok := r.bundles[name]
	if !ok {
		return
	}

	for p := range b.Manifest.Platforms {
		r.byPlatform[p] = slices.DeleteFunc(r.byPlatform[p], func(x *Bundle) bool {
			return x.Manifest.Name == name
		})
		if len(r.byPlatform[p]) == 0 {
			delete(r.byPlatform, p)
		}
	}

	delete(r.bundles, name)

	r.logger.Info("Bundle unregistered", zap.String("name", name))
}

// Count returns the number of registered bundles.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.bundles)
}
