package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// A .env file is optional; deployments usually set the environment directly.
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("alert_chat_id", "ALERT_CHAT_ID")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "cryptopulse.db")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
