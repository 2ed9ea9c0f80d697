// Command contracts runs the contract API on its own, without the sign-in
// endpoints. Requests carry access tokens minted by the main service (shared
// JWT_SECRET); the admin role is read from the token's "role" claim.
package main

import (
	"context"
	"os"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/handler"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/repository"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/service"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/database"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/seed"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/tokens"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("CONTRACT_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatalf("JWT_SECRET is required")
	}

	ctx := context.Background()
	store := openStore(ctx)
	svc := service.New(store, nil, nil, service.Options{})

	if path := os.Getenv("SEED_CATEGORIES_FILE"); path != "" {
		if cats, err := seed.LoadCategories(path); err != nil {
			logger.Warnf("category seed skipped: %v", err)
		} else if _, err := svc.EnsureCategories(ctx, cats); err != nil {
			logger.Warnf("category seed failed: %v", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	api := r.Group("/api/v1", middleware.AuthMiddleware(tokens.NewVerifier(secret)))
	handler.New(svc, nil).Register(api)

	logger.Infof("contract service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// openStore prefers MongoDB when MONGODB_URI is set and falls back to memory
// when it cannot connect.
func openStore(ctx context.Context) *repository.Store {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		return repository.NewMemoryStore()
	}
	client, err := database.ConnectMongo(ctx, uri, 10*time.Second)
	if err != nil {
		logger.Warnf("cannot connect to MongoDB (%v); using memory store", err)
		return repository.NewMemoryStore()
	}
	name := os.Getenv("MONGODB_DATABASE")
	if name == "" {
		name = "contractdesk"
	}
	store, err := repository.NewMongoStore(ctx, client.Database(name))
	if err != nil {
		logger.Warnf("mongo store setup failed (%v); using memory store", err)
		return repository.NewMemoryStore()
	}
	return store
}
