package idtoken

import (
	"context"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dpup/idtoken/internal/config"
	"github.com/dpup/idtoken/keyset"
	"github.com/dpup/idtoken/logging"
)

// Filename of the optional configuration file, discovered by walking up from
// the working directory.
const ConfigFile = "idtoken.yaml"

// Config is a koanf instance holding library configuration.
//
// Config is loaded in the following order (later sources override earlier):
//  1. Registered defaults (applied lazily, on first use)
//  2. Auto-discovered idtoken.yaml
//  3. Environment variables with the IDT__ prefix
//
// Environment variable transformation:
//   - IDT__IDTOKEN__CERTS_URL → idtoken.certsUrl
//   - IDT__IDTOKEN__CACHE__ENABLED → idtoken.cache.enabled
var Config = koanf.New(".")

func init() {
	config.RegisterKeys(
		config.KeyInfo{
			Key:         "idtoken.certsUrl",
			Description: "Endpoint publishing the JWKS used to sign Google ID tokens",
			Type:        "string",
			Default:     keyset.GoogleCertsURL,
		},
		config.KeyInfo{
			Key:         "idtoken.httpTimeout",
			Description: "Timeout for remote key fetches",
			Type:        "duration",
			Default:     "10s",
		},
		config.KeyInfo{
			Key:         "idtoken.cache.enabled",
			Description: "Reuse fetched keys across verifications per HTTP cache headers",
			Type:        "bool",
			Default:     true,
		},
		config.KeyInfo{
			Key:         "idtoken.cache.minTtl",
			Description: "Freshness floor applied when the key server grants no max-age",
			Type:        "duration",
			Default:     "0s",
		},
		config.KeyInfo{
			Key:         "idtoken.audiences",
			Description: "Accepted audience identifiers (OAuth client IDs)",
			Type:        "[]string",
		},
	)

	if cfg := config.SearchForConfig(ConfigFile, "."); cfg != "" {
		if err := Config.Load(file.Provider(cfg), yaml.Parser()); err != nil {
			panic("idtoken: error loading config: " + err.Error())
		}
	}
	if err := Config.Load(env.Provider("IDT__", ".", config.TransformEnv), nil); err != nil {
		panic("idtoken: error loading env config: " + err.Error())
	}
}

// ValidateConfig logs a warning for every loaded idtoken.* key that is not a
// known config key, catching typos like `idtoken.certUrl`.
func ValidateConfig(ctx context.Context) {
	for _, w := range config.ValidateKeys(Config, "idtoken") {
		logging.Warnw(ctx, "idtoken: config warning", "detail", w.String())
	}
}
