package config

import (
	"path/filepath"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/sge-engine/sgetool/pkg/platform"
	"github.com/sge-engine/sgetool/pkg/workspace"
)

// Config describes all configuration options
type Config struct {
	Platform string `usage:"Platform to build for (windows, linux, darwin). Defaults to the host system"`
	Log      struct {
		Level string `default:"info"`
		JSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages"`
	}
	CMake struct {
		Bin      string `default:"cmake" usage:"Build system configurator to run"`
		Source   string `default:"cmake" usage:"Directory containing the top level CMakeLists.txt"`
		Output   string `default:"projects" usage:"Directory the native project is generated in"`
		Fallback bool   `default:"false" usage:"Run cmake without -G on unsupported platforms"`
	} `toml:"cmake" env:"CMAKE"`
	Shaders struct {
		Compiler  string `default:"glslangValidator" usage:"Shader compiler to run"`
		TargetEnv string `default:"vulkan1.0" toml:"target_env" env:"TARGET_ENV" usage:"Value for the compiler's --target-env flag"`
		Revision  int    `default:"3" usage:"Compiler invocation style (1, 2 or 3)"`
		OnError   string `default:"abort" toml:"on_error" env:"ON_ERROR" usage:"What to do when a shader fails to compile (abort or continue)"`
		Resources string `default:"res" usage:"Directory with the engine shaders"`
		Examples  string `default:"examples" usage:"Directory with one subdirectory per example"`
	}
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// DefaultPath returns the location of the config file for the checkout at root
func DefaultPath(root string) string {
	return filepath.Join(root, workspace.ConfigName)
}

// Loader initializes an empty config object and returns a new Loader for this object.
// Values are read from the given TOML file (if it exists) and SGETOOL_* environment variables.
func Loader(file string) (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SGETOOL",
		// flags are handled by cobra
		SkipFlags: true,
		Files:     []string{file},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load reads the configuration from file
func Load(file string) (*Config, error) {
	cfg, loader := Loader(file)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "failed to load config")
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return eris.Errorf(`invalid value for log.level: %s`, cfg.Log.Level)
	}

	if cfg.Shaders.Revision < 1 || cfg.Shaders.Revision > 3 {
		return eris.Errorf(`invalid value for shaders.revision: %d (must be 1, 2 or 3)`, cfg.Shaders.Revision)
	}

	switch cfg.Shaders.OnError {
	case "abort", "continue":
	default:
		return eris.Errorf(`invalid value for shaders.on_error: %s (must be abort or continue)`, cfg.Shaders.OnError)
	}

	if cfg.Platform != "" {
		// with the fallback, unknown platforms are left to the commands
		_, err := platform.Lookup(cfg.Platform)
		if err != nil && !(cfg.CMake.Fallback && eris.Is(err, platform.ErrUnsupported)) {
			return eris.Wrap(err, "invalid value for platform")
		}
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// Layout returns the checkout layout with the configured directory names
func (cfg *Config) Layout() workspace.Layout {
	return workspace.Layout{
		CMake:     cfg.CMake.Source,
		Projects:  cfg.CMake.Output,
		Resources: cfg.Shaders.Resources,
		Examples:  cfg.Shaders.Examples,
	}
}
