package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; optional ones fall back to the defaults below.
type Config struct {
	Env            string        // application environment (dev, test, prod)
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // HS256 signing secret for every token purpose
	AccessTTL      time.Duration // lifetime of access tokens
	RefreshTTL     time.Duration // lifetime of refresh tokens
	OTPTokenTTL    time.Duration // lifetime of the OTP-session bearer token
	OTPTTL         time.Duration // how long an issued OTP can be verified
	BcryptCost     int           // bcrypt cost for password hashing
	UploadDir      string        // directory uploaded files are written to and served from
	PublicBaseURL  string        // absolute prefix used when building /public/ file URLs
	ExposeOTP      bool          // echo the OTP in the forgot_password response (dev only)
	RequireOTPAuth bool          // reset_password requires a verified OTP
	RabbitURL      string        // when set, OTP mails go through the broker
	CORSOrigins    []string      // allowed browser origins
	SMTP           SMTPConfig
}

// SMTPConfig configures the outbound mail relay. An empty Host means mails
// are only logged.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Load reads configuration values from environment variables and returns a
// Config. Missing required variables terminate the process.
func Load() Config {
	port := must("APP_PORT")
	return Config{
		Env:            must("APP_ENV"),
		Port:           port,
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTL:      envDur("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTL:     envDur("REFRESH_TOKEN_TTL", 24*time.Hour),
		OTPTokenTTL:    envDur("OTP_TOKEN_TTL", time.Hour),
		OTPTTL:         envDur("OTP_TTL", 10*time.Minute),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		UploadDir:      envStr("UPLOAD_DIR", "./public"),
		PublicBaseURL:  envStr("PUBLIC_BASE_URL", "http://localhost:"+port),
		ExposeOTP:      envBool("EXPOSE_OTP", false),
		RequireOTPAuth: envBool("REQUIRE_OTP_VERIFIED", true),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		CORSOrigins:    envList("CORS_ORIGINS", []string{"*"}),
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: envInt("SMTP_PORT", 587),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: envStr("SMTP_FROM", "no-reply@localhost"),
		},
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envList splits a comma separated variable, dropping empty items.
func envList(k string, d []string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(k), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return d
	}
	return out
}
