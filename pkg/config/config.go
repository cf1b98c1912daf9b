package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigFile — путь к .env-файлу и указатель на структуру конфигурации.
// Структуры могут содержать теги envconfig.
type ConfigFile struct {
	Path   string
	Config interface{}
}

// LoadConfigFiles загружает несколько конфигурационных файлов
// и анмаршалит переменные окружения в структуры.
func LoadConfigFiles(configFiles ...*ConfigFile) error {
	for _, configFile := range configFiles {
		if configFile.Path != "" {
			if err := godotenv.Load(configFile.Path); err != nil {
				return err
			}
		}

		if err := envconfig.Process("", configFile.Config); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfigs анмаршалит переменные окружения сразу в несколько структур
func LoadConfigs(config ...interface{}) error {
	for _, cfg := range config {
		if err := envconfig.Process("", cfg); err != nil {
			return err
		}
	}
	return nil
}
