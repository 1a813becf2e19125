package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"worldinfo/internal/structures"

	"github.com/spf13/viper"
)

const AppName = "WorldInfo"

func setDefaults(v *viper.Viper) {
	v.SetDefault("persistence.saveInterval", "60s")
	v.SetDefault("chart.width", 600)
	v.SetDefault("chart.height", 200)
	v.SetDefault("chart.margin", 40)
	v.SetDefault("chart.limits.visits", 10000)
	v.SetDefault("chart.limits.favorites", 10000)
	v.SetDefault("chart.limits.heat", 10)
	v.SetDefault("chart.limits.popularity", 10)
	v.SetDefault("dashboard.panelWidth", 260)
	v.SetDefault("fetch.limit", 50)
	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.maxRetries", 2)
	v.SetDefault("fetch.rateLimit", 2)
	v.SetDefault("cache.ttl", "10s")
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config
	v := viper.New()

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setDefaults(v)

	v.BindEnv("logger.level", "WI_LOG_LEVEL")
	v.BindEnv("persistence.filePath", "WI_HISTORY_PATH")
	v.BindEnv("persistence.tablePath", "WI_TABLE_PATH")
	v.BindEnv("persistence.saveInterval", "WI_SAVE_INTERVAL")
	v.BindEnv("fetch.baseURL", "WI_FETCH_URL")
	v.BindEnv("fetch.cookie", "WI_FETCH_COOKIE")
	v.BindEnv("fetch.username", "WI_FETCH_USERNAME")
	v.BindEnv("fetch.password", "WI_FETCH_PASSWORD")
	v.BindEnv("cache.enabled", "WI_CACHE_ENABLED")
	v.BindEnv("cache.size", "WI_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
