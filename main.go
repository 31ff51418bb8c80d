package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediloon/agents"
	"mediloon/auth"
	"mediloon/catalog"
	"mediloon/config"
	"mediloon/db"
	"mediloon/dispatch"
	"mediloon/globals"
	"mediloon/medicines"
	"mediloon/medparse"
	"mediloon/ordering"
	"mediloon/orderws"
	"mediloon/pipeline"
	"mediloon/predict"
	"mediloon/ratelim"
	"mediloon/rdx"
	"mediloon/routes"
	"mediloon/sessionstore"
	"mediloon/webhooks"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s - %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	cfg := config.Load()
	globals.JwtSecret = cfg.JwtSecret

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer store.Close(context.Background())

	redisConn, err := rdx.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer redisConn.Close()

	sessions := sessionstore.NewMongo(store.Sessions)
	if err := sessions.EnsureIndexes(ctx); err != nil {
		log.Fatalf("session indexes: %v", err)
	}

	// side-effect plumbing: emitter publishes, worker delivers
	emitter := dispatch.NewEmitter(redisConn)
	worker := dispatch.NewWorker(redisConn, cfg.SupplierWebhookURL, cfg.NotifyWebhookURL)
	go worker.Run(ctx)

	// stage agents
	data := agents.NewMongoData(store)
	stageAgents := []agents.Agent{
		&agents.Ordering{
			Catalog:   catalog.NewMongo(store.Medicines),
			Threshold: cfg.SimilarityThreshold,
			Margin:    cfg.AmbiguityMargin,
		},
		&agents.Safety{Data: data},
		&agents.Forecast{Data: data},
		&agents.Procurement{Dispatcher: emitter},
	}

	orch := pipeline.New(sessions, stageAgents, medparse.New(), emitter,
		ordering.NewMongoOrders(store.Orders), pipeline.Config{
			StageTimeout:   cfg.StageTimeout,
			StageRetries:   cfg.StageRetries,
			BackoffBase:    cfg.BackoffBase,
			ClarifyTimeout: cfg.ClarifyTimeout,
		})
	go orch.Reaper(ctx, time.Minute)

	// live status updates over websocket
	hub := orderws.NewHub()
	go hub.Run()
	orch.SetNotifier(hub)

	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddStaticRoutes(router)
	routes.AddAuthRoutes(router, rateLimiter, auth.NewAPI(store))
	routes.AddOrderRoutes(router, rateLimiter, ordering.NewAPI(orch, store, cfg.UploadDir))
	routes.AddPredictionRoutes(router, predict.NewAPI(store))
	routes.AddMedicineRoutes(router, rateLimiter, medicines.NewAPI(store))
	routes.AddWebhookRoutes(router, webhooks.NewAPI(orch))
	routes.AddStatusSocketRoutes(router, hub)

	// apply middleware: CORS, then security headers, then logging
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("Shutting down status hub...")
		hub.Stop()
	})

	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped cleanly")
}
