package storage

import (
	"errors"
	"fmt"
	"sort"
)

// Factory creates a new LeaseStorage
type Factory func(args map[string][]string) (LeaseStorage, error)

// DefaultDriver is used if no database has been configured
const DefaultDriver = "file"

var registeredFactorys = map[string]Factory{}

// Register registeres a new storage factory
func Register(name string, factory Factory) error {
	if _, ok := registeredFactorys[name]; ok {
		return errors.New("storage driver already registered")
	}

	registeredFactorys[name] = factory
	return nil
}

// MustRegister registeres a new storage factory and panics on error
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// Open opens a LeaseStorage using driver name
func Open(name string, args map[string][]string) (LeaseStorage, error) {
	factory, ok := registeredFactorys[name]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q", name)
	}

	return factory(args)
}

// Drivers returns the names of all registered drivers
func Drivers() []string {
	names := make([]string, 0, len(registeredFactorys))
	for name := range registeredFactorys {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
