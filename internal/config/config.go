package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	// Aggregator is the unified accounting API used when an organization
	// has no direct platform integration.
	Aggregator struct {
		BaseURL      string `mapstructure:"base_url"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		Version      string `mapstructure:"version"`
	} `mapstructure:"aggregator"`

	Wave struct {
		BaseURL      string `mapstructure:"base_url"`
		GraphQLURL   string `mapstructure:"graphql_url"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURI  string `mapstructure:"redirect_uri"`
		SendMethod   string `mapstructure:"send_method"`
	} `mapstructure:"wave"`

	QuickBooks struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"quickbooks"`

	Dynamics struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"dynamics"`

	Email struct {
		ServiceURL       string `mapstructure:"service_url"`
		ReminderURL      string `mapstructure:"reminder_url"`
		DefaultRecipient string `mapstructure:"default_recipient"`
	} `mapstructure:"email"`

	Razorpay struct {
		KeyID     string `mapstructure:"key_id"`
		KeySecret string `mapstructure:"key_secret"`
	} `mapstructure:"razorpay"`

	Storage struct {
		Endpoint      string `mapstructure:"endpoint"`
		AccessKey     string `mapstructure:"access_key"`
		SecretKey     string `mapstructure:"secret_key"`
		Bucket        string `mapstructure:"bucket"`
		Region        string `mapstructure:"region"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	} `mapstructure:"storage"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "billing_db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("aggregator.base_url", "https://production.rutterapi.com")
	v.SetDefault("wave.graphql_url", "https://gql.waveapps.com/graphql/public")
	v.SetDefault("wave.send_method", "shared_link")
	v.SetDefault("quickbooks.base_url", "https://quickbooks.api.intuit.com")
	v.SetDefault("dynamics.base_url", "https://api.businesscentral.dynamics.com")
	v.SetDefault("storage.region", "auto")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	// Aggregator credentials come from the environment, never the file
	if id := os.Getenv("AGGREGATOR_CLIENT_ID"); id != "" {
		cfg.Aggregator.ClientID = id
	}
	if secret := os.Getenv("AGGREGATOR_CLIENT_SECRET"); secret != "" {
		cfg.Aggregator.ClientSecret = secret
	}
	if version := os.Getenv("AGGREGATOR_VERSION"); version != "" {
		cfg.Aggregator.Version = version
	}

	if id := os.Getenv("WAVE_CLIENT_ID"); id != "" {
		cfg.Wave.ClientID = id
	}
	if secret := os.Getenv("WAVE_CLIENT_SECRET"); secret != "" {
		cfg.Wave.ClientSecret = secret
	}
	if uri := os.Getenv("WAVE_REDIRECT_URI"); uri != "" {
		cfg.Wave.RedirectURI = uri
	}

	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}

	if key := os.Getenv("STORAGE_ACCESS_KEY"); key != "" {
		cfg.Storage.AccessKey = key
	}
	if secret := os.Getenv("STORAGE_SECRET_KEY"); secret != "" {
		cfg.Storage.SecretKey = secret
	}

	return &cfg
}
