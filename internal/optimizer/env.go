package optimizer

import (
	"os"
	"sync"
)

// envOverride lets tests pin the pass selection for the duration of a
// block without touching the real process environment (§9
// "Globals": "Expose an override-for-block helper for tests").
var (
	envMu       sync.Mutex
	envOverride *string
)

// ResolvePassSelection reads envVar once and turns it into a selection
// map: unset means every pass enabled, set (including to "") goes
// through ParsePassSpec (§6 "unset enables all; empty string
// disables all passes"). A test override installed by WithPassSpecEnv
// takes precedence over the real environment.
func ResolvePassSelection(envVar string) (map[int]bool, error) {
	envMu.Lock()
	override := envOverride
	envMu.Unlock()

	if override != nil {
		return ParsePassSpec(*override)
	}

	v, ok := os.LookupEnv(envVar)
	if !ok {
		return AllPassesEnabled(), nil
	}
	return ParsePassSpec(v)
}

// WithPassSpecEnv pins the pass-selection DSL string fn observes via
// ResolvePassSelection to spec, regardless of the real process
// environment, then restores the prior override. Not safe to call
// concurrently with another WithPassSpecEnv from a different goroutine,
// the same restriction funvibe-funxy's own process-global config carries.
func WithPassSpecEnv(spec string, fn func()) {
	envMu.Lock()
	prev := envOverride
	envOverride = &spec
	envMu.Unlock()

	defer func() {
		envMu.Lock()
		envOverride = prev
		envMu.Unlock()
	}()

	fn()
}
