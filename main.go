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

	"github.com/mkravets/phonebook-be/internal/api"
	"github.com/mkravets/phonebook-be/internal/auth"
	"github.com/mkravets/phonebook-be/internal/config"
	"github.com/mkravets/phonebook-be/internal/database"
	"github.com/mkravets/phonebook-be/internal/images"
	"github.com/mkravets/phonebook-be/internal/logger"
	"github.com/mkravets/phonebook-be/internal/mail"
	"github.com/mkravets/phonebook-be/internal/monitoring"
	"github.com/mkravets/phonebook-be/internal/objectstore"
	"github.com/mkravets/phonebook-be/internal/services"
	"github.com/mkravets/phonebook-be/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	// Ensure the temp directory for uploads exists
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up external collaborators
	mailer, err := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}

	objectStore, err := objectstore.NewS3Store(context.Background(),
		cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	signer := auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	resizer := images.NewResizer()

	// Set up stores and services
	userStore := storage.NewUserStore(db)
	contactStore := storage.NewContactStore(db)

	userService := services.NewUserService(userStore, hasher, signer, mailer)
	avatarService := services.NewAvatarService(userStore, resizer, objectStore)
	contactService := services.NewContactService(contactStore)

	// Set up and run the background stat updater
	statUpdater := monitoring.NewStatUpdater(60 * time.Second)
	go statUpdater.Run()

	// Set up and run the upload janitor
	janitor, err := monitoring.NewJanitor(cfg.UploadDir, cfg.JanitorSchedule, time.Hour)
	if err != nil {
		log.Fatalf("Failed to initialize upload janitor: %v", err)
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(signer, userStore, userService, avatarService, contactService, cfg.UploadDir)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	statUpdater.Stop()
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
