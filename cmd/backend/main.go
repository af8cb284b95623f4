package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"filevault/internal/db"
	"filevault/internal/server"
)

func main() {
	if err := server.ValidateAllConfiguration(); err != nil {
		log.Printf("service=backend msg=%q err=%v", "invalid_configuration", err)
		os.Exit(1)
	}
	server.WarnOnOptionalMissingConfig()

	addr := getenvDefault("APP_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("APP_VERSION", "dev"),
		Commit:  getenvDefault("APP_COMMIT", "unknown"),
	}

	// Database
	dbConn, err := server.OpenDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	users := server.NewUserStore(dbConn)

	auth := server.AuthConfig{
		Secret:     os.Getenv("JWT_SECRET"),
		TokenTTL:   tokenTTL(),
		CookieName: "token",
		Users:      users,
	}

	// Object storage is optional at startup: when the configuration is
	// incomplete the upload route answers with a configuration error.
	storage, err := server.NewObjectStorageFromEnv()
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "object_storage_disabled", err)
		storage = nil
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := storage.EnsureBucket(ctx); err != nil {
			cancel()
			log.Printf("service=backend msg=%q err=%v", "bucket_setup_failed", err)
			os.Exit(1)
		}
		cancel()
	}

	srv := server.New(server.Config{
		Addr:           addr,
		Build:          build,
		Auth:           auth,
		DB:             dbConn,
		Users:          users,
		Storage:        storage,
		MaxUploadBytes: maxUploadBytes(),
	})

	// Start the HTTP server in a background goroutine so we can listen
	// for OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give the server 5 seconds to finish in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// tokenTTL parses AUTH_TOKEN_TTL. Unset or unparseable values mean tokens
// are issued without an expiry claim; the parse error case is already
// rejected by startup validation.
func tokenTTL() time.Duration {
	raw := os.Getenv("AUTH_TOKEN_TTL")
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

// maxUploadBytes parses MAX_UPLOAD_BYTES; zero means no limit.
func maxUploadBytes() int64 {
	raw := os.Getenv("MAX_UPLOAD_BYTES")
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
