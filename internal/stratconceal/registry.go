// Package stratconceal is the strategy registry mapping a
// ports.ConcealMode to the ports.ConcealExtractor that implements it,
// populated by each strategy package's init().
package stratconceal

import (
	"log"
	"sync"

	"github.com/hailam/ghostclass/internal/ghosterr"
	"github.com/hailam/ghostclass/internal/ports"
)

var (
	registry      = make(map[ports.ConcealMode]ports.ConcealExtractor)
	registryMutex sync.RWMutex
)

// Register is called by a strategy package's init() to make itself
// available under mode.
func Register(mode ports.ConcealMode, strategy ports.ConcealExtractor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if _, exists := registry[mode]; exists {
		log.Printf("stratconceal: duplicate registration for mode %q, overwriting", mode)
	}
	registry[mode] = strategy
}

// For returns the strategy registered under mode.
func For(mode ports.ConcealMode) (ports.ConcealExtractor, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	s, ok := registry[mode]
	if !ok {
		return nil, ghosterr.Newf(ghosterr.KindParseError, "unsupported concealment mode %q", mode)
	}
	return s, nil
}

// RegisteredModes lists every mode currently registered.
func RegisteredModes() []ports.ConcealMode {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	modes := make([]ports.ConcealMode, 0, len(registry))
	for m := range registry {
		modes = append(modes, m)
	}
	return modes
}
