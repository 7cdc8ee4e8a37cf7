package core

import (
	"log"
	"net"
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
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		CORSAllowedOrigins []string
		DisableReqLogs     bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite3
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite3 only
	}

	RedisConfig struct {
		URL string
	}

	PaginationConfig struct {
		PageSize    int
		MaxPageSize int
	}

	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Redis        RedisConfig
		Pagination   PaginationConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig loads the application configuration from defaults, the optional `config/.env.<env>` file
// and the environment (prefixed with the env name, e.g. `PROD_DATABASE_HOST`).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Control Escolar")
	conf.SetDefault("secretKey", "x1!kc7wq@5bz$0-ts2m^e8r)u3+9of(lhy&ad6pngj_v4i")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugAddress", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("server.corsAllowedOrigins", []string{"http://localhost:4200"})
	conf.SetDefault("server.disableReqLogs", false)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "control_escolar")
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.path", "control_escolar.db")

	conf.SetDefault("redis.url", "")

	conf.SetDefault("pagination.pageSize", 10)
	conf.SetDefault("pagination.maxPageSize", 100)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               conf.GetString("server.host"),
			Address:            conf.GetString("server.address"),
			DebugAddress:       conf.GetString("server.debugAddress"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
			CORSAllowedOrigins: conf.GetStringSlice("server.corsAllowedOrigins"),
			DisableReqLogs:     conf.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetInt("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
			Path:          conf.GetString("database.path"),
		},
		Redis: RedisConfig{
			URL: conf.GetString("redis.url"),
		},
		Pagination: PaginationConfig{
			PageSize:    conf.GetInt("pagination.pageSize"),
			MaxPageSize: conf.GetInt("pagination.maxPageSize"),
		},
	}
}

// NewTestConfig returns a configuration suitable for tests: debug off, in-memory sqlite3 database.
func NewTestConfig() *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Control Escolar",
		SecretKey: "test-secret-key",
		Server: ServerConfig{
			Host:               "example.com",
			JWTExpirationDelta: time.Hour,
			ShutdownTimeout:    time.Second,
			DisableReqLogs:     true,
		},
		Database: DatabaseConfig{
			Engine: "sqlite3",
			Path:   ":memory:",
		},
		Pagination: PaginationConfig{
			PageSize:    10,
			MaxPageSize: 100,
		},
	}
}
