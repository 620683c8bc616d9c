package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env       string
		Build     string
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey string

		Server struct {
			Address            string
			DebugAddress       string
			ShutdownTimeout    time.Duration
			JWTExpirationDelta time.Duration
		}

		// Admin is the account seeded at startup.
		Admin struct {
			Username     string
			Password     string
			PasswordHash string // bcrypt; wins over Password when set
		}

		Notification struct {
			DefaultFromEmail string
			AdmissionsEmail  string // high-quality leads are forwarded here
			SendgridApiKey   string
		}

		CRM struct {
			Enabled bool
			Delay   time.Duration
		}

		RollbarToken string
	}
)

// NewConfig loads the configuration from the environment.
// The value of ENV (DEV by default) is used as the env prefix, e.g. PROD_SECRETKEY.
// A `.env.<env>` file in CONFIG_DIR (default "config") is loaded first when it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "EduLead")
	v.SetDefault("secretKey", "k3v9-wq)p2h$+1x=dz&uoyt8(h!c)#*m2(#lg4h^$zed-7rj")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.passwordHash", "")
	v.SetDefault("notification.defaultFromEmail", "noreply@localhost")
	v.SetDefault("notification.admissionsEmail", "")
	v.SetDefault("notification.sendgridApiKey", "")
	v.SetDefault("crm.enabled", true)
	v.SetDefault("crm.delay", 2*time.Second)
	v.SetDefault("rollbarToken", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	conf.Env = env
	conf.Build = v.GetString("build")
	conf.Debug = v.GetBool("debug")
	conf.TestMode = v.GetBool("testMode")
	conf.AppName = v.GetString("appName")
	conf.SecretKey = v.GetString("secretKey")

	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugAddress = v.GetString("server.debugAddress")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")

	conf.Admin.Username = v.GetString("admin.username")
	conf.Admin.Password = v.GetString("admin.password")
	conf.Admin.PasswordHash = v.GetString("admin.passwordHash")

	conf.Notification.DefaultFromEmail = v.GetString("notification.defaultFromEmail")
	conf.Notification.AdmissionsEmail = v.GetString("notification.admissionsEmail")
	conf.Notification.SendgridApiKey = v.GetString("notification.sendgridApiKey")

	conf.CRM.Enabled = v.GetBool("crm.enabled")
	conf.CRM.Delay = v.GetDuration("crm.delay")

	conf.RollbarToken = v.GetString("rollbarToken")
	return conf
}
