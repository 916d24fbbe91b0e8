// Package config handles YAML config file loading for the gangway CLI.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default} references.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes environment variable references in raw config
// text before YAML parsing, so credentials stay out of checked-in
// files:
//
//	emitter:
//	  type: webhook
//	  url: ${GANGWAY_WEBHOOK_URL:-http://localhost:9000/events}
//	  headers:
//	    Authorization: Bearer ${GANGWAY_WEBHOOK_TOKEN}
//
// An unset variable without a default expands to the empty string
// rather than erroring; required values fail at downstream validation
// instead, e.g. a webhook emitter with an empty URL.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(ref string) string {
		groups := envVarPattern.FindStringSubmatch(ref)
		if groups == nil {
			return ref
		}
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		// The ${VAR:-default} default, or "" when none was given.
		return groups[2]
	})
}
