package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage engines
const (
	EngineMemory   = "memory"
	EngineFile     = "file"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineRedis    = "redis"
)

type Config struct {
	Env      string // DEV (local; default), TEST, QA, PROD
	Debug    bool
	TestMode bool
	AppName  string
	Build    string

	Server struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	Storage struct {
		Engine   string
		Dir      string        // file engine
		CacheTTL time.Duration // 0 disables the read-through cache
	}

	Database struct {
		Engine     string // sqlite | postgres
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		Path       string // sqlite file
		DisableTLS bool
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	RollbarToken     string
	SendgridAPIKey   string
	DefaultFromEmail string
	TeacherEmail     string
}

func (c *Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

// DataSourceName returns the driver name and DSN for the configured SQL engine.
func (c *Config) DataSourceName() (string, string) {
	if c.Database.Engine == EnginePostgres {
		sslMode := "require"
		if c.Database.DisableTLS {
			sslMode = "disable"
		}
		return "postgres", fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=%s&timezone=utc",
			c.Database.User, c.Database.Password, c.DatabaseAddress(), c.Database.Name, sslMode,
		)
	}
	return "sqlite", c.Database.Path
}

// NewConfig loads the configuration from the environment (and an optional .env file).
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "NEA Tracker")
	v.SetDefault("build", "develop")
	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("storage.engine", EngineSQLite)
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.cacheTTL", time.Duration(0))
	v.SetDefault("database.engine", EngineSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "neatracker")
	v.SetDefault("database.path", "neatracker.db")
	v.SetDefault("database.disableTLS", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "nea:")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		TeacherEmail:     v.GetString("teacherEmail"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")

	conf.Storage.Engine = strings.ToLower(v.GetString("storage.engine"))
	conf.Storage.Dir = v.GetString("storage.dir")
	conf.Storage.CacheTTL = v.GetDuration("storage.cacheTTL")

	conf.Database.Engine = strings.ToLower(v.GetString("database.engine"))
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.Path = v.GetString("database.path")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")

	conf.Redis.Addr = v.GetString("redis.addr")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")
	conf.Redis.Prefix = v.GetString("redis.prefix")

	return conf
}
