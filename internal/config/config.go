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
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret used to verify access tokens minted by the identity service

	SweepIntervalSec int // how often the hold sweeper runs, in seconds

	RabbitURL string // AMQP broker URL (optional, falls back to localhost)

	VNPayTmnCode    string // merchant code issued by VNPay
	VNPayHashSecret string // HMAC secret for VNPay signatures
	VNPayBaseURL    string // VNPay payment page URL
	VNPayReturnURL  string // where VNPay redirects the buyer afterwards

	MoMoPartnerCode string // partner code issued by MoMo
	MoMoAccessKey   string // MoMo access key
	MoMoSecretKey   string // HMAC secret for MoMo signatures
	MoMoEndpoint    string // MoMo create-payment API endpoint
	MoMoRedirectURL string // where MoMo redirects the buyer afterwards
	MoMoIPNURL      string // where MoMo posts its server-to-server confirmation
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret: must("JWT_SECRET"),

		SweepIntervalSec: optInt("HOLD_SWEEP_INTERVAL_SEC", 60),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		VNPayTmnCode:    must("VNPAY_TMN_CODE"),
		VNPayHashSecret: must("VNPAY_HASH_SECRET"),
		VNPayBaseURL:    opt("VNPAY_BASE_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		VNPayReturnURL:  must("VNPAY_RETURN_URL"),

		MoMoPartnerCode: must("MOMO_PARTNER_CODE"),
		MoMoAccessKey:   must("MOMO_ACCESS_KEY"),
		MoMoSecretKey:   must("MOMO_SECRET_KEY"),
		MoMoEndpoint:    opt("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
		MoMoRedirectURL: must("MOMO_REDIRECT_URL"),
		MoMoIPNURL:      must("MOMO_IPN_URL"),
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

// opt retrieves an optional environment variable with a default.
func opt(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optInt is like opt() but converts the value into an integer.  A value
// that fails to parse is a configuration error and exits.
func optInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
