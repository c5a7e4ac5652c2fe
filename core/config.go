package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		CookieSecure       bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	TwilioConfig struct {
		AccountSid string
		AuthToken  string
		FromNumber string
	}

	Config struct {
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmailAddr      string
		DefaultFromEmailName      string
		PasswordResetTimeoutDelta time.Duration
		OTPTTL                    time.Duration
		OTPLength                 int
		OTPMaxAttempts            int
		QuestionsPerBank          int
		Currency                  string
		RollbarToken              string
		SendgridApiKey            string
		StripeSecretKey           string
		FirebaseCredentialsFile   string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Twilio   TwilioConfig
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromEmailName, Address: c.DefaultFromEmailAddr}
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig reads the configuration from the environment.
// `config/.env.<env>` is loaded first when it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Lyceum")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "Lyceum")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("otpTTL", 10*time.Minute)
	v.SetDefault("otpLength", 6)
	v.SetDefault("otpMaxAttempts", 5)
	v.SetDefault("questionsPerBank", 20)
	v.SetDefault("currency", "usd")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("stripeSecretKey", "")
	v.SetDefault("firebaseCredentialsFile", "")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "lyceum")
	v.SetDefault("dbUser", "lyceum")
	v.SetDefault("dbPassword", "lyceum")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("redisAddress", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)

	v.SetDefault("twilioAccountSid", "")
	v.SetDefault("twilioAuthToken", "")
	v.SetDefault("twilioFromNumber", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	debug := v.GetBool("debug")
	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     debug,
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		DefaultFromEmailAddr:      v.GetString("defaultFromEmail"),
		DefaultFromEmailName:      v.GetString("defaultFromName"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		OTPTTL:                    v.GetDuration("otpTTL"),
		OTPLength:                 v.GetInt("otpLength"),
		OTPMaxAttempts:            v.GetInt("otpMaxAttempts"),
		QuestionsPerBank:          v.GetInt("questionsPerBank"),
		Currency:                  v.GetString("currency"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		StripeSecretKey:           v.GetString("stripeSecretKey"),
		FirebaseCredentialsFile:   v.GetString("firebaseCredentialsFile"),
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			Address:            v.GetString("serverAddress"),
			DebugHost:          v.GetString("serverDebugHost"),
			ShutdownTimeout:    v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
			CookieSecure:       !debug,
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redisAddress"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
		Twilio: TwilioConfig{
			AccountSid: v.GetString("twilioAccountSid"),
			AuthToken:  v.GetString("twilioAuthToken"),
			FromNumber: v.GetString("twilioFromNumber"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: debug off, test mode on,
// and short-lived secrets that never leave the process.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.Server.CookieSecure = false
	conf.QuestionsPerBank = 20
	return conf
}
