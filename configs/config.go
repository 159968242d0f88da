// описание общего конфига для сервиса синхронизации вакансий
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync_service/shared/config"

	"github.com/joho/godotenv"
)

type SyncServiceConfig struct {
	LogLevel   string
	Cache      *CachesConfig
	Parsers    *ParsersConfig
	Aggregator *AggregatorConfig
	Reconciler *ReconcilerConfig
	ServerConf *config.ServerConfig
}

// LoadConfig загружает .env (путь из SYNC_ENV_FILE, по умолчанию ./.env) и yml конфиги,
// пути к которым заданы переменными окружения. Отсутствующие файлы заменяются значениями по умолчанию
func LoadConfig() (*SyncServiceConfig, error) {
	envFile := os.Getenv("SYNC_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cacheConfig, err := config.LoadYAMLConfig[CachesConfig](os.Getenv("CACHES_CONFIG_PATH"), DefaultCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("load caches config: %w", err)
	}
	if err := cacheConfig.Validate(); err != nil {
		return nil, err
	}

	parsersConfig, err := config.LoadYAMLConfig[ParsersConfig](os.Getenv("PARSERS_CONFIG_PATH"), DefaultParsersConfig)
	if err != nil {
		return nil, fmt.Errorf("load parsers config: %w", err)
	}
	// ключ SuperJob чаще передают через окружение, а не через yml
	if key := os.Getenv("SUPERJOB_API_KEY"); key != "" && parsersConfig.SuperJob != nil {
		parsersConfig.SuperJob.APIKey = key
	}

	aggregatorConfig, err := config.LoadYAMLConfig[AggregatorConfig](os.Getenv("AGGREGATOR_CONFIG_PATH"), DefaultAggregatorConfig)
	if err != nil {
		return nil, fmt.Errorf("load aggregator config: %w", err)
	}

	reconcilerConfig, err := config.LoadYAMLConfig[ReconcilerConfig](os.Getenv("RECONCILER_CONFIG_PATH"), DefaultReconcilerConfig)
	if err != nil {
		return nil, fmt.Errorf("load reconciler config: %w", err)
	}
	if err := reconcilerConfig.Validate(); err != nil {
		return nil, err
	}

	serverConfig, err := config.LoadYAMLConfig[config.ServerConfig](os.Getenv("SERVER_CONFIG_PATH"), config.UseDefaultServerConfig)
	if err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if key := os.Getenv("SYNC_API_KEY"); key != "" {
		serverConfig.APIKey = key
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &SyncServiceConfig{
		LogLevel:   logLevel,
		Cache:      cacheConfig,
		Parsers:    parsersConfig,
		Aggregator: aggregatorConfig,
		Reconciler: reconcilerConfig,
		ServerConf: serverConfig,
	}, nil
}
