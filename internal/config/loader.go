package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "PACELINE_"

// Load builds the configuration in three layers: built-in defaults, the
// YAML file at path (when given), then PACELINE_ environment variables.
// Env keys separate section and field with a double underscore, as in
// PACELINE_SERVER__PORT=9090. String values in the file may reference
// environment variables with ${VAR}, ${VAR:-default} or $VAR.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, "defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "config file %s", path)
		}
	}

	k, err := expandEnvVarsInKoanf(k)
	if err != nil {
		return Config{}, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyToPath), nil); err != nil {
		return Config{}, errors.Wrap(err, "environment")
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultsMap() map[string]any {
	def := Default()
	return map[string]any{
		"server.host":       def.Server.Host,
		"server.port":       def.Server.Port,
		"pacing.delay":      def.Pacing.Delay,
		"pacing.jitter":     def.Pacing.Jitter,
		"model.provider":    def.Model.Provider,
		"model.name":        def.Model.Name,
		"model.api_key_env": def.Model.APIKeyEnv,
		"model.temperature": def.Model.Temperature,
		"model.max_tokens":  def.Model.MaxTokens,
		"logging.level":     def.Logging.Level,
		"logging.format":    def.Logging.Format,
	}
}

// loadEnvFiles loads .env.local and .env when present. Variables already
// set in the environment win.
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to load %s", name)
		}
	}
	return nil
}

// envKeyToPath maps PACELINE_SERVER__PORT to server.port. The double
// underscore separates nesting levels so field names may keep single
// underscores, as in PACELINE_MODEL__API_KEY_ENV.
func envKeyToPath(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "__", ".")
}

// expandEnvVarsInKoanf rewrites every string value in the loaded tree
// through expandEnvString and reloads the result.
func expandEnvVarsInKoanf(k *koanf.Koanf) (*koanf.Koanf, error) {
	expanded, ok := expandValue(k.Raw()).(map[string]any)
	if !ok {
		return nil, errors.New("unexpected config shape after env expansion")
	}

	out := koanf.New(".")
	if err := out.Load(confmap.Provider(expanded, "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to reload expanded config")
	}
	return out, nil
}

func expandValue(v any) any {
	switch val := v.(type) {
	case string:
		return expandEnvString(val)
	case map[string]any:
		result := make(map[string]any, len(val))
		for key, item := range val {
			result[key] = expandValue(item)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = expandValue(item)
		}
		return result
	default:
		return v
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvString(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]

			if idx := strings.Index(inner, ":-"); idx != -1 {
				if val := os.Getenv(inner[:idx]); val != "" {
					return val
				}
				return inner[idx+2:]
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}
