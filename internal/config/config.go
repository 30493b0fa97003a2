package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		DSN string
	}
	JWT struct {
		Secret string
	}
	SMTP struct {
		Host     string
		Port     int
		Sender   string
		Password string
	}
	Services struct {
		Entries string
		Users   string
		PDF     string
	}
	Scheduler struct {
		Interval time.Duration
	}
	Slack struct {
		WebhookURL string
		Channel    string
	}
}

// LoadConfig loads the configuration from config.yaml, with environment
// variables (TRACKIFY_MAIL_*) taking precedence.
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("trackify_mail")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Every key needs a default (even an empty one): AutomaticEnv only
	// surfaces env vars through Unmarshal for keys viper already knows.
	viper.SetDefault("server.port", 8002)
	viper.SetDefault("database.dsn", "host=localhost user=postgres dbname=trackify_mail sslmode=disable")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.sender", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("services.entries", "http://entries-service:80")
	viper.SetDefault("services.users", "http://user-service:80")
	viper.SetDefault("services.pdf", "http://pdf-service:80")
	viper.SetDefault("scheduler.interval", time.Hour)
	viper.SetDefault("slack.webhookurl", "")
	viper.SetDefault("slack.channel", "")

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
