package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Telegram Telegram
	Storage  Storage
	Venue    Venue
	Gemini   Gemini
}

type Telegram struct {
	Token   string
	AdminID int64
	Login   string // admin panel password
}

// Storage picks the key-value backend: DATABASE_URL wins, then REDIS_ADDR,
// otherwise files under DataDir.
type Storage struct {
	DataDir     string
	DatabaseURL string
	RedisAddr   string
}

// Venue holds the fallback settings used when nothing is stored yet.
type Venue struct {
	WhatsappNumber string
	ShareURL       string
}

type Gemini struct {
	APIKey  string
	BaseURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	adminID, _ := strconv.ParseInt(getEnv("ADMIN_ID", "0"), 10, 64)

	return &Config{
		Telegram: Telegram{
			Token:   getEnv("TOKEN", ""),
			AdminID: adminID,
			Login:   getEnv("LOGIN", ""),
		},
		Storage: Storage{
			DataDir:     getEnv("DATA_DIR", "./data"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisAddr:   getEnv("REDIS_ADDR", ""),
		},
		Venue: Venue{
			WhatsappNumber: getEnv("WHATSAPP_NUMBER", "5581998371952"),
			ShareURL:       getEnv("SHARE_URL", ""),
		},
		Gemini: Gemini{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", ""),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
