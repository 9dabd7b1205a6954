package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	JWTSecret        string // secret used to verify JWTs issued by the identity service
	RequestTTLHours  int    // hours before a pending booking request expires
	SweepIntervalMin int    // minutes between background expiration sweeps
	TxTimeoutSec     int    // deadline for reservation transactions (approval, cancel, edit)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  TTL and interval
// settings have conservative defaults so a bare environment still runs.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),      // environment (dev/test/prod)
		Port:             must("APP_PORT"),     // port to bind the HTTP server
		DBUser:           must("DB_USER"),      // database user
		DBPass:           os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:           must("DB_HOST"),      // database host
		DBPort:           must("DB_PORT"),      // database port
		DBName:           must("DB_NAME"),      // database name
		JWTSecret:        must("JWT_SECRET"),   // secret used for verifying JWTs
		RequestTTLHours:  intOr("REQUEST_TTL_HOURS", 24),
		SweepIntervalMin: intOr("SWEEP_INTERVAL_MIN", 5),
		TxTimeoutSec:     intOr("RESERVATION_TX_TIMEOUT_SEC", 10),
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

// intOr retrieves an optional integer environment variable, falling back
// to the provided default when unset.  A malformed value is fatal rather
// than silently ignored.
func intOr(key string, def int) int {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
