package observability

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

var registry = struct {
	sync.RWMutex
	observers map[string]Observer
}{
	observers: map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
		"otel": NewOTelObserver(),
	},
}

// GetObserver returns the observer registered under name. "noop", "slog"
// and "otel" are registered at init.
func GetObserver(name string) (Observer, error) {
	registry.RLock()
	defer registry.RUnlock()

	obs, exists := registry.observers[name]
	if !exists {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer.
func RegisterObserver(name string, observer Observer) {
	registry.Lock()
	defer registry.Unlock()

	registry.observers[name] = observer
}

// Registered lists the registered observer names in sorted order.
func Registered() []string {
	registry.RLock()
	defer registry.RUnlock()

	names := make([]string, 0, len(registry.observers))
	for name := range registry.observers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a comma-separated list of registered names, such as
// "slog,otel", into one observer.
func Resolve(names string) (Observer, error) {
	var members []Observer
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		obs, err := GetObserver(name)
		if err != nil {
			return nil, err
		}
		members = append(members, obs)
	}
	return NewMultiObserver(members...), nil
}
