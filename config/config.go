package config

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Token   string `toml:"token" mapstructure:"token"`
	Host    string `toml:"host" mapstructure:"host"`
	Port    string `toml:"port" mapstructure:"port"`
	Libonnx string `toml:"libonnx" mapstructure:"libonnx"`

	ModelPath       string   `toml:"model_path" mapstructure:"model_path"`
	ModelBundlePath string   `toml:"model_bundle_path" mapstructure:"model_bundle_path"`
	MaxUploadBytes  int64    `toml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	AllowedTypes    []string `toml:"allowed_types" mapstructure:"allowed_types"`
}

var (
	cfg = Config{
		Token:          "",
		Host:           "0.0.0.0",
		Port:           "8000",
		MaxUploadBytes: 10 << 20,
		AllowedTypes:   []string{"image/jpeg", "image/png", "image/webp"},
	}
	loadOnce sync.Once
)

func C() Config {
	loadOnce.Do(func() {
		if _, err := os.Stat("config.toml"); err == nil {
			data, err := os.ReadFile("config.toml")
			if err != nil {
				panic(err)
			}
			if err := toml.Unmarshal(data, &cfg); err != nil {
				panic(err)
			}
		}
		// Env vars win over config.toml for artifact locations.
		if p := os.Getenv("MODEL_PATH"); p != "" {
			cfg.ModelPath = p
		}
		if p := os.Getenv("MODEL_BUNDLE_PATH"); p != "" {
			cfg.ModelBundlePath = p
		}
	})
	return cfg
}
