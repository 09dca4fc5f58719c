// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"
	"sort"

	"github.com/gogpu/gpucontext"
)

// Backend enumerates outputs and reports their changes.
type Backend interface {
	Notifier

	// Name identifies the backend, e.g. "headless".
	Name() string

	// Outputs returns the current outputs in discovery order.
	Outputs() []Output

	// Close releases every output.
	Close() error
}

// registry holds backend factories. Hardware backends are preferred over
// virtual ones.
var registry = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority("drm", "wayland", "x11", "headless"),
)

// Register makes a backend available by name. Backends register
// themselves from init:
//
//	func init() {
//	    backend.Register("headless", func() backend.Backend {
//	        return New(DefaultConfig())
//	    })
//	}
//
// Registering an existing name replaces it.
func Register(name string, factory func() Backend) {
	registry.Register(name, factory)
}

// Unregister removes a backend.
func Unregister(name string) {
	registry.Unregister(name)
}

// Open creates the named backend.
func Open(name string) (Backend, error) {
	if !registry.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return registry.Get(name), nil
}

// OpenBest creates the highest priority registered backend.
func OpenBest() (Backend, error) {
	name := registry.BestName()
	if name == "" {
		return nil, fmt.Errorf("%w: no backends registered", ErrNotFound)
	}
	return Open(name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	names := registry.Available()
	sort.Strings(names)
	return names
}
