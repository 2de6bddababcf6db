package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	ServerPort           string `json:"server_port"`
	DatabasePath         string `json:"database_path"`
	DatabaseDSN          string `json:"database_dsn,omitempty"` // Postgres DSN, takes precedence over DatabasePath
	JWTSecret            string `json:"jwt_secret"`
	Production           bool   `json:"production"`
	SessionDurationHours int    `json:"session_duration_hours"`
	MinPasswordLength    int    `json:"min_password_length"`
	BcryptCost           int    `json:"bcrypt_cost"`
	RedisAddr            string `json:"redis_addr,omitempty"`
	RedisPassword        string `json:"redis_password,omitempty"`
	RedisDB              int    `json:"redis_db"`
	TimeZone             string `json:"time_zone"`
	AllowOrigins         string `json:"allow_origins"`
	AuthRateLimit        int    `json:"auth_rate_limit"` // requests per minute per IP on auth endpoints, 0 disables

	mu   sync.RWMutex
	path string
}

var (
	instance *Config
	once     sync.Once
)

func generateSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

func getConfigPath() string {
	configDir := os.Getenv("TASKFLOW_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".taskflow")
		}
	}
	return filepath.Join(configDir, "config.json")
}

// Default returns a config with every default applied and no file backing.
func Default() *Config {
	c := &Config{ServerPort: "8080"}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.SessionDurationHours == 0 {
		c.SessionDurationHours = 24
	}
	if c.MinPasswordLength == 0 {
		c.MinPasswordLength = 8
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.AllowOrigins == "" {
		c.AllowOrigins = "http://localhost:5173,http://localhost:3000,http://localhost:8080"
	}
}

// Load reads the config file, generates missing secrets and applies
// environment overrides. A .env file in the working directory is loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}

	configPath := getConfigPath()
	c := &Config{
		ServerPort:    "8080",
		AuthRateLimit: 10,
		path:          configPath,
	}

	// Try to load existing config
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, c); err != nil {
			log.Printf("Config file %s is corrupted, using defaults: %v", configPath, err)
		}
	}
	c.applyDefaults()

	needsSave := false
	if c.JWTSecret == "" {
		c.JWTSecret = generateSecret(32)
		needsSave = true
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(filepath.Dir(configPath), "taskflow.db")
		needsSave = true
	}

	c.applyEnv()

	if needsSave {
		if err := c.Save(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("TASKFLOW_PORT"); port != "" {
		c.ServerPort = port
	}
	if dbPath := os.Getenv("TASKFLOW_DB_PATH"); dbPath != "" {
		c.DatabasePath = dbPath
	}
	if dsn := os.Getenv("TASKFLOW_DB_DSN"); dsn != "" {
		c.DatabaseDSN = dsn
	}
	if os.Getenv("TASKFLOW_PRODUCTION") == "true" {
		c.Production = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.RedisAddr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		c.RedisPassword = pw
	}
	if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		c.RedisDB = db
	}
	if tz := os.Getenv("TASKFLOW_TIME_ZONE"); tz != "" {
		c.TimeZone = tz
	}
	if origins := strings.TrimSpace(os.Getenv("TASKFLOW_ALLOW_ORIGINS")); origins != "" {
		c.AllowOrigins = origins
	}
}

// GetConfig returns the process-wide config, loading it on first use.
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		instance = cfg
	})
	return instance
}

func (c *Config) SessionHours() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SessionDurationHours
}

func (c *Config) SetSessionHours(hours int) {
	c.mu.Lock()
	c.SessionDurationHours = hours
	c.mu.Unlock()
}

// Save writes the config file. Configs built in memory have nowhere to go
// and are left alone.
func (c *Config) Save() error {
	if c.path == "" {
		return nil
	}

	configDir := filepath.Dir(c.path)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}
