// Package http exposes the JSON API over the wallet, transaction and
// stats services.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"walletbook/internal/cache"
	"walletbook/internal/core"
	"walletbook/internal/middleware/ratelimit"
	"walletbook/internal/middleware/security"
	"walletbook/internal/middleware/trace"
	"walletbook/internal/services"
)

const statsCacheTTL = time.Minute

type Server struct {
	http.Server

	wallets      *services.WalletService
	transactions *services.TransactionService
	stats        *services.StatsService

	// Stats responses cached per user and period; a user's mutations
	// drop all of that user's entries.
	statsCache   *cache.LRUCache[core.StatsOverview]
	cacheManager *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, wallets *services.WalletService, transactions *services.TransactionService, stats *services.StatsService) *Server {
	s := &Server{
		wallets:      wallets,
		transactions: transactions,
		stats:        stats,
		statsCache:   cache.NewLRUCache[core.StatsOverview](300, statsCacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     security.NewDetector(),
	}

	s.cacheManager.Register(s.statsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/v1/wallets", s.handleListWallets)
	mux.HandleFunc("POST /api/v1/wallets", s.handleSaveWallet)
	mux.HandleFunc("GET /api/v1/wallets/{id}", s.handleGetWallet)
	mux.HandleFunc("DELETE /api/v1/wallets/{id}", s.handleDeleteWallet)
	mux.HandleFunc("GET /api/v1/wallets/{id}/transactions", s.handleWalletTransactions)

	mux.HandleFunc("GET /api/v1/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/v1/transactions", s.handleSaveTransaction)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/v1/stats/{period}", s.handleStats)

	traceMW := trace.NewMiddleware(s.detector.ExtractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeFailure(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traceMW.Middleware(headersMW.Middleware(limitMW(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the background routines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) invalidateStats(uid string) {
	s.statsCache.DeletePrefix(uid + ":")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
