package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/FinAssist/internal/api"
	"github.com/BTreeMap/FinAssist/internal/genai"
	"github.com/BTreeMap/FinAssist/internal/messaging"
	"github.com/BTreeMap/FinAssist/internal/store"
	"github.com/BTreeMap/FinAssist/internal/util"
)

// Default configuration constants
const (
	// DefaultSeedCount is the number of demo customers seeded when demo
	// seeding is enabled without an explicit count.
	DefaultSeedCount = 50
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	twilioOpts := buildTwilioOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping FinAssist with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "twilio", len(twilioOpts), "api", len(apiOpts))
	if err := api.Run(storeOpts, genaiOpts, twilioOpts, apiOpts); err != nil {
		slog.Error("FinAssist failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("FinAssist exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	RedisURL      string
	OpenAIKey     string
	APIAddr       string
	SeedDemo      bool
	SeedCount     int
	TwilioSID     string
	TwilioToken   string
	TwilioFromNum string
}

// Flags holds command line flag values
type Flags struct {
	dbDSN      *string
	redisURL   *string
	openaiKey  *string
	apiAddr    *string
	seedDemo   *bool
	seedCount  *int
	twilioSID  *string
	twilioTok  *string
	twilioFrom *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		APIAddr:       os.Getenv("API_ADDR"),
		SeedDemo:      util.ParseBoolEnv("FINASSIST_SEED_DEMO", false),
		SeedCount:     util.ParseIntEnv("FINASSIST_SEED_COUNT", DefaultSeedCount),
		TwilioSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNum: os.Getenv("TWILIO_FROM_NUMBER"),
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"REDIS_URL_SET", config.RedisURL != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"FINASSIST_SEED_DEMO", config.SeedDemo,
		"TWILIO_ACCOUNT_SID_SET", config.TwilioSID != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:      flag.String("db-dsn", config.DatabaseURL, "database DSN for the identity store (overrides $DATABASE_URL)"),
		redisURL:   flag.String("redis-url", config.RedisURL, "Redis URL for session storage (overrides $REDIS_URL)"),
		openaiKey:  flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for document Q&A (overrides $OPENAI_API_KEY)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		seedDemo:   flag.Bool("seed-demo", config.SeedDemo, "seed demo customers at startup (overrides $FINASSIST_SEED_DEMO)"),
		seedCount:  flag.Int("seed-count", config.SeedCount, "number of demo customers to seed"),
		twilioSID:  flag.String("twilio-account-sid", config.TwilioSID, "Twilio account SID for the SMS channel (overrides $TWILIO_ACCOUNT_SID)"),
		twilioTok:  flag.String("twilio-auth-token", config.TwilioToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom: flag.String("twilio-from-number", config.TwilioFromNum, "Twilio sending phone number (overrides $TWILIO_FROM_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"dbDSN_set", *flags.dbDSN != "",
		"redisURL_set", *flags.redisURL != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"seedDemo", *flags.seedDemo,
		"twilioSID_set", *flags.twilioSID != "")

	return flags
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			// Assume SQLite for file paths
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildTwilioOptions constructs Twilio SMS channel options
func buildTwilioOptions(flags Flags) []messaging.TwilioOption {
	var twilioOpts []messaging.TwilioOption
	if *flags.twilioSID == "" || *flags.twilioTok == "" || *flags.twilioFrom == "" {
		slog.Debug("Twilio credentials incomplete, SMS channel disabled")
		return nil
	}
	twilioOpts = append(twilioOpts,
		messaging.WithAccountSID(*flags.twilioSID),
		messaging.WithAuthToken(*flags.twilioTok),
		messaging.WithFromNumber(*flags.twilioFrom))
	return twilioOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.redisURL != "" {
		apiOpts = append(apiOpts, api.WithRedisURL(*flags.redisURL))
	}
	if *flags.seedDemo {
		apiOpts = append(apiOpts, api.WithDemoSeed(*flags.seedCount))
	}
	return apiOpts
}
