package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the application configuration. It must be initialized once at
// startup via InitConf (binaries) or set directly (tests).
var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
		MigrationsDir string
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		SecretKey        []byte
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		// Invitation ledger
		InvitationValidityDelta time.Duration
		InvitationPurgeDelta    time.Duration
		InvitationPurgeCronSpec string

		// Attendance window
		AttendanceMarkWindow       time.Duration
		AttendanceScheduleFallback bool

		Server   ServerConfig
		Database DatabaseConfig
	}
)

func (c ServerConfig) Address() string   { return c.Host + ":" + c.Port }
func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

// InitConf loads the configuration from defaults, an optional
// config/.env.<env> file and environment variables (prefixed with ENV).
func InitConf() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "ClassCheck")
	v.SetDefault("secretKey", "o0v$+hs3&@x#ymc1(verb0^yh1u&2d^tfjvs)xn9tl%8b&-3t(")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "no-reply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("invitationValidityDelta", 72*time.Hour)
	v.SetDefault("invitationPurgeDelta", 30*24*time.Hour)
	v.SetDefault("invitationPurgeCronSpec", "0 3 * * *")
	v.SetDefault("attendanceMarkWindow", 15*time.Minute)
	v.SetDefault("attendanceScheduleFallback", false)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "classcheck")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.migrationsDir", filepath.Join("storage", "database", "migrations"))

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        []byte(v.GetString("secretKey")),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),

		InvitationValidityDelta: v.GetDuration("invitationValidityDelta"),
		InvitationPurgeDelta:    v.GetDuration("invitationPurgeDelta"),
		InvitationPurgeCronSpec: v.GetString("invitationPurgeCronSpec"),

		AttendanceMarkWindow:       v.GetDuration("attendanceMarkWindow"),
		AttendanceScheduleFallback: v.GetBool("attendanceScheduleFallback"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MigrationsDir: filepath.Join(wd, v.GetString("database.migrationsDir")),
		},
	}
	return Conf
}
