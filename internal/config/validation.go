package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

// Warning flags a loaded configuration key that is not known to the registry,
// with suggestions for similarly spelled registered keys.
type Warning struct {
	Key         string
	Suggestions []string
}

func (w Warning) String() string {
	msg := fmt.Sprintf("'%s' is not a known config key", w.Key)
	if len(w.Suggestions) == 1 {
		msg += fmt.Sprintf(", did you mean '%s'?", w.Suggestions[0])
	} else if len(w.Suggestions) > 1 {
		msg += fmt.Sprintf(", did you mean one of: %s?", strings.Join(w.Suggestions, ", "))
	}
	return msg
}

// ValidateKeys checks all loaded configuration keys against the registry and
// returns warnings for unknown keys. Keys outside the library's namespaces
// are ignored so host applications can share a config file.
func ValidateKeys(k *koanf.Koanf, namespaces ...string) []Warning {
	var warnings []Warning
	for _, key := range k.Keys() {
		if !inNamespace(key, namespaces) {
			continue
		}
		if _, known := LookupKey(key); known {
			continue
		}
		warnings = append(warnings, Warning{
			Key:         key,
			Suggestions: FindSimilarKeys(key, 3),
		})
	}
	return warnings
}

func inNamespace(key string, namespaces []string) bool {
	for _, ns := range namespaces {
		if key == ns || strings.HasPrefix(key, ns+".") {
			return true
		}
	}
	return len(namespaces) == 0
}
