package config

import (
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// KeyInfo contains metadata about a known configuration key.
type KeyInfo struct {
	Key         string      // The full config key path (e.g. "idtoken.certsUrl")
	Description string      // Human-readable description of what this config does
	Type        string      // Type hint: "string", "bool", "duration", "[]string", etc.
	Default     interface{} // Optional default value
}

var (
	registry   = make(map[string]KeyInfo)
	registryMu sync.RWMutex

	defaultsLoaded sync.Once
)

// RegisterKeys registers known configuration keys with metadata. Called from
// package init functions to document expected config keys.
func RegisterKeys(infos ...KeyInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, info := range infos {
		registry[info.Key] = info
	}
}

// LookupKey returns the metadata for a registered key.
func LookupKey(key string) (KeyInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[key]
	return info, ok
}

// KnownKeys returns the sorted list of registered key paths.
func KnownKeys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// EnsureDefaultsLoaded loads registered default values into the koanf
// instance for any key that hasn't been set through another source. Called
// after all init functions have had a chance to register their keys.
// Thread-safe and idempotent.
func EnsureDefaultsLoaded(k *koanf.Koanf) {
	defaultsLoaded.Do(func() {
		registryMu.RLock()
		defaults := map[string]interface{}{}
		for key, info := range registry {
			if info.Default != nil && !k.Exists(key) {
				defaults[key] = info.Default
			}
		}
		registryMu.RUnlock()
		if len(defaults) > 0 {
			// confmap never fails on a flat map keyed by full paths.
			_ = k.Load(confmap.Provider(defaults, "."), nil)
		}
	})
}

// FindSimilarKeys returns up to max registered keys that are a close
// spelling match for the given key, used to surface likely typos.
func FindSimilarKeys(key string, max int) []string {
	type match struct {
		key  string
		dist int
	}
	var matches []match
	for _, known := range KnownKeys() {
		if d := levenshtein.ComputeDistance(key, known); d <= 4 {
			matches = append(matches, match{known, d})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].dist < matches[j].dist })
	var out []string
	for i := 0; i < len(matches) && i < max; i++ {
		out = append(out, matches[i].key)
	}
	return out
}
