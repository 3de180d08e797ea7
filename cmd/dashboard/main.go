package main

import (
	"fmt"
	"net/http"
	"os"

	"portfolio-dashboard-go/internal/airtable"
	"portfolio-dashboard-go/internal/auth"
	"portfolio-dashboard-go/internal/config"
	"portfolio-dashboard-go/internal/database"
	"portfolio-dashboard-go/internal/logger"
	"portfolio-dashboard-go/internal/marketdata"
	"portfolio-dashboard-go/internal/portfolio"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Open the session store
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open session database", zap.Error(err))
	}

	// Remote table and market data clients
	loader := airtable.NewClient(&cfg.Airtable, log)
	market := marketdata.NewClient(&cfg.MarketData, log)

	service := portfolio.NewService(log, loader, market)
	authenticator := auth.New(&cfg.Auth, db, log)

	// Setup HTTP server
	mux := http.NewServeMux()

	apiHandler := NewAPIHandler(log, service, authenticator)

	// Session endpoints
	mux.HandleFunc("/api/login", apiHandler.LoginHandler)
	mux.HandleFunc("/api/logout", apiHandler.LogoutHandler)
	mux.HandleFunc("/api/session", apiHandler.SessionHandler)

	// Dashboard endpoints, gated behind an authenticated session
	mux.HandleFunc("/api/dashboard", apiHandler.requireAuth(apiHandler.DashboardHandler))
	mux.HandleFunc("/api/market", apiHandler.requireAuth(apiHandler.MarketSummaryHandler))
	mux.HandleFunc("/api/transactions", apiHandler.requireAuth(apiHandler.TransactionsHandler))

	// Static file serving for CSS, JS, etc.
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// HTML template serving
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/templates/index.html")
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
