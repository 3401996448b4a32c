package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/heraldbot/herald/api"
	"github.com/heraldbot/herald/bot"
	"github.com/heraldbot/herald/cache"
	"github.com/heraldbot/herald/database"
	"github.com/heraldbot/herald/kvstore"
	"github.com/heraldbot/herald/render"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

type Config struct {
	Token            string `json:"token"`
	ConnectionString string `json:"connection_string"`
	DataDir          string `json:"data_dir"`
	ListenAddr       string `json:"listen_addr"`
}

func main() {
	_ = godotenv.Load()

	path := os.Getenv("HERALD_CONFIG")
	if path == "" {
		path = "./config.json"
	}
	d, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var config *Config
	if err := json.Unmarshal(d, &config); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if tok := os.Getenv("DISCORD_BOT_TOKEN"); tok != "" {
		config.Token = tok
	}
	if config.DataDir == "" {
		config.DataDir = "./data"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":5080"
	}

	z, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.NewPSQLDatabase(&database.Config{
		Log:     z.Named("database"),
		ConnStr: config.ConnectionString,
	})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	store, err := kvstore.NewStore(z.Named("kvstore"), config.DataDir)
	if err != nil {
		log.Fatalf("failed to open kvstore: %v", err)
	}
	defer store.Close()

	configs := cache.NewManager(db, z.Named("cache"))
	if err := configs.Hydrate(); err != nil {
		log.Fatalf("failed to hydrate config cache: %v", err)
	}

	renderer, err := render.NewRenderer(&render.Config{Log: z.Named("render")})
	if err != nil {
		log.Fatalf("failed to create renderer: %v", err)
	}

	b, err := bot.NewBot(&bot.Config{
		Configs:  configs,
		Store:    store,
		Log:      z.Named("bot"),
		DB:       db,
		Renderer: renderer,
		Token:    config.Token,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	defer b.Close()

	if err := b.Run(); err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}

	srv := api.NewServer(&api.Config{
		Configs:  configs,
		DB:       db,
		Renderer: renderer,
		Log:      z.Named("api"),
	})
	go func() {
		if err := http.ListenAndServe(config.ListenAddr, srv.Router()); err != nil {
			z.Error("api server stopped", zap.Error(err))
		}
	}()

	// block until ctrl-c
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
}
