package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fieldlab/session.review/internal/api"
	"github.com/fieldlab/session.review/internal/config"
	"github.com/fieldlab/session.review/internal/session"
	"github.com/fieldlab/session.review/internal/timeutil"
	"github.com/fieldlab/session.review/internal/version"
)

var (
	listen      = flag.String("listen", "127.0.0.1:8080", "Listen address")
	dataDir     = flag.String("data", "", "Session folder to load at startup (optional)")
	sessionsDir = flag.String("sessions", "", "Restrict loadable session folders to this directory (optional)")
	configFile  = flag.String("config", "", "Tuning config JSON file (optional)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTuningConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	sess := session.New(cfg, timeutil.RealClock{})
	sess.Start()
	defer sess.Close()

	if *dataDir != "" {
		if err := sess.LoadFolder(os.DirFS(*dataDir), filepath.Base(*dataDir)); err != nil {
			log.Fatalf("failed to load session folder: %v", err)
		}
		log.Printf("loaded session folder %q", *dataDir)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(sess, *sessionsDir).ServeMux()
		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("session review server listening on %s", *listen)

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
}
