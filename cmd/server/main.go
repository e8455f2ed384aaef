package main

import (
	"log"
	"net/http"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/config"
	"github.com/ahsanfayaz52/notesservice/internal/db"
	"github.com/ahsanfayaz52/notesservice/internal/handlers"
	"github.com/ahsanfayaz52/notesservice/internal/middleware"
	"github.com/ahsanfayaz52/notesservice/internal/store"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	var st *store.Store
	if cfg.DBHost != "" {
		st = store.New(db.InitMySQL(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName))
	} else {
		st = store.New(db.InitSQLite(cfg.DatabasePath))
	}
	defer st.Close()

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	r := handlers.NewRouter(st, jwtService, cfg)

	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))

	if cfg.RedisURL != "" {
		limiter, err := middleware.NewRateLimiter(cfg.RedisURL, cfg.RateLimitMax, cfg.RateLimitWindow)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer limiter.Close()
		r.Use(limiter.Middleware())
	} else {
		log.Println("REDIS_URL not set, rate limiting disabled")
	}

	log.Printf("Starting server on port %s...", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
