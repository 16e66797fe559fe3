package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the scheduling policy durations
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Database and JWT settings are required;
// the airline policy knobs default to the values the business runs with
// and exist mainly so tests and staging can shorten them.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify bearer tokens

	BcryptCost int // bcrypt cost for passwords of checkout-created accounts

	GroundBuffer   time.Duration // minimum turnaround after a flight lands (default 90m)
	RepositionGap  time.Duration // gap that lets an unscheduled airplane reposition (default 6h)
	CancelCutoff   time.Duration // how long before departure a ticket may be canceled (default 24h)
	SweepInterval  time.Duration // how often the lifecycle sweeper runs (default 1m)
	CheckoutURL    string        // base URL the payment provider redirects back to
	NotifyQueueCap int           // buffer size of the async notification dispatcher
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		BcryptCost: envInt("BCRYPT_COST", 12),

		GroundBuffer:   envDur("GROUND_BUFFER", 90*time.Minute),
		RepositionGap:  envDur("REPOSITION_GAP", 6*time.Hour),
		CancelCutoff:   envDur("CANCEL_CUTOFF", 24*time.Hour),
		SweepInterval:  envDur("SWEEP_INTERVAL", time.Minute),
		CheckoutURL:    envStr("CHECKOUT_URL", "http://localhost:8080"),
		NotifyQueueCap: envInt("NOTIFY_QUEUE_CAP", 256),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}
