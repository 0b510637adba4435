package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-drop/internal/blob"
	"image-drop/internal/config"
	"image-drop/internal/imgproc"
	"image-drop/internal/server"
	"image-drop/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "config_invalid", err)
		os.Exit(1)
	}

	build := server.BuildInfo{
		Version: getenvDefault("IMGD_VERSION", "dev"),
		Commit:  getenvDefault("IMGD_COMMIT", "unknown"),
	}

	// Database
	dbConn, err := server.OpenDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Run migrations
	log.Printf("service=backend msg=%q", "running_migrations")
	if err := server.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	// Blob storage
	var blobs blob.Store
	switch cfg.BlobBackend {
	case "minio":
		blobs, err = blob.NewMinio(context.Background(), blob.MinioOptions{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
	default:
		blobs, err = blob.NewFS(cfg.DataDir)
	}
	if err != nil {
		log.Printf("service=backend msg=%q backend=%s err=%v", "blob_init_failed", cfg.BlobBackend, err)
		os.Exit(1)
	}

	pool := imgproc.NewPool(cfg.ThumbWorkers)

	srvCfg := server.Config{
		Addr:           cfg.Addr,
		Build:          build,
		Meta:           store.NewPostgres(dbConn),
		Blobs:          blobs,
		Pool:           pool,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	srv := server.New(srvCfg)

	// Backfill job runs independently of live traffic.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	go server.StartBackfillJob(jobCtx, server.BackfillConfig{
		Enabled:  cfg.BackfillEnabled,
		Interval: cfg.BackfillInterval,
		Server:   srvCfg,
	})

	// Start the HTTP server in a background goroutine.
	// This allows us to listen for OS signals while the server runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", cfg.Addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (container stop).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		cancelJobs()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		// Let in-flight thumbnail derivations finish.
		pool.Wait()
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
