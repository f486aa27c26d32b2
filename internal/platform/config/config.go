package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Statement session tuning
	LedgerPageSize    int
	CustomerPageSize  int
	SearchDebounce    time.Duration
	CashPaymentMethod string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LEDGER_PAGE_SIZE", 200)
	viper.SetDefault("CUSTOMER_PAGE_SIZE", 100)
	viper.SetDefault("SEARCH_DEBOUNCE", "300ms")
	viper.SetDefault("CASH_PAYMENT_METHOD", "Cash")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.LedgerPageSize = viper.GetInt("LEDGER_PAGE_SIZE")
	if cfg.LedgerPageSize <= 0 {
		cfg.LedgerPageSize = 200
		log.Printf("Warning: Invalid LEDGER_PAGE_SIZE. Defaulting to %d.\n", cfg.LedgerPageSize)
	}

	cfg.CustomerPageSize = viper.GetInt("CUSTOMER_PAGE_SIZE")
	if cfg.CustomerPageSize <= 0 {
		cfg.CustomerPageSize = 100
		log.Printf("Warning: Invalid CUSTOMER_PAGE_SIZE. Defaulting to %d.\n", cfg.CustomerPageSize)
	}

	debounceStr := viper.GetString("SEARCH_DEBOUNCE")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil || debounce <= 0 {
		debounce = 300 * time.Millisecond
		if debounceStr != "" {
			log.Printf("Warning: Invalid value for SEARCH_DEBOUNCE ('%s'). Defaulting to %s.\n", debounceStr, debounce.String())
		}
	}
	cfg.SearchDebounce = debounce

	cfg.CashPaymentMethod = viper.GetString("CASH_PAYMENT_METHOD")
	if cfg.CashPaymentMethod == "" {
		cfg.CashPaymentMethod = "Cash"
	}

	return cfg, nil
}
