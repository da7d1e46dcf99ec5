package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"cardapio-telegram/bot"
	"cardapio-telegram/config"
	"cardapio-telegram/describe"
	"cardapio-telegram/kvstore"
	"cardapio-telegram/models"
	"cardapio-telegram/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Telegram.Token == "" {
		fmt.Fprintln(os.Stderr, "TOKEN not set")
		os.Exit(1)
	}

	ctx := context.Background()

	kv, err := openKV(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storage:", err)
		os.Exit(1)
	}

	st := store.LoadWithDefaults(ctx, kv, models.AppSettings{
		WhatsappNumber: cfg.Venue.WhatsappNumber,
		ShareUrl:       cfg.Venue.ShareURL,
	})

	enhancer := describe.New(cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
	if cfg.Gemini.APIKey == "" {
		log.Println("GEMINI_API_KEY not set; descriptions use the local template")
	}

	b, err := bot.New(cfg, st, enhancer)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}

	fmt.Println("Bot started.")
	b.Start()
}

// openKV picks the storage backend: Postgres when DATABASE_URL is set,
// Redis when REDIS_ADDR is set, files under DATA_DIR otherwise.
func openKV(ctx context.Context, cfg *config.Config) (kvstore.KV, error) {
	switch {
	case cfg.Storage.DatabaseURL != "":
		log.Println("storage: postgres")
		return kvstore.NewPostgres(ctx, cfg.Storage.DatabaseURL)
	case cfg.Storage.RedisAddr != "":
		log.Println("storage: redis")
		return kvstore.NewRedis(ctx, cfg.Storage.RedisAddr)
	default:
		log.Printf("storage: files under %s", cfg.Storage.DataDir)
		return kvstore.NewFile(cfg.Storage.DataDir)
	}
}
