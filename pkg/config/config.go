package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var (
	once     sync.Once
	instance *Config
)

type Config struct {
}

func New() *Config {
	once.Do(func() {
		err := godotenv.Load("./configs/.env")
		if err != nil {
			log.Println("no .env file loaded, relying on process environment")
		}
		instance = &Config{}
	})
	return instance
}

func (c *Config) GetString(key string) string {
	return os.Getenv(key)
}

// MustGet returns the value of key or terminates the process. Used for
// settings the bot cannot run without (token, database, cipher key).
func (c *Config) MustGet(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatal("missing required config key: " + key)
	}
	return v
}

// GetStringDefault returns the value of key, or def when unset.
func (c *Config) GetStringDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
