package logger

import (
	"slices"
	"sync"
)

// components maps a component name to its logger.
var components sync.Map

// Register sets the logger used by component name.
func Register(name string, l *Logger) {
	components.Store(name, l)
}

// RegisterComponents registers base, tagged with the component name, for
// each of names.
func RegisterComponents(base *Logger, names ...string) {
	for _, name := range names {
		Register(name, base.WithComponent(name))
	}
}

// Get returns the logger registered for name. Unregistered names get the
// global logger tagged with name.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// Components returns the registered component names, sorted.
func Components() []string {
	var names []string
	components.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	slices.Sort(names)
	return names
}
