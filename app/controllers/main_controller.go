package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vitrinelabs/vitrine/internal/pkg/cache"
	"github.com/vitrinelabs/vitrine/internal/pkg/database"
)

// HandleHealth is the liveness probe: database and cache reachability.
func HandleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbOK := false
	cacheOK := false

	if db := database.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB.Ping() == nil {
			dbOK = true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if client := cache.GetClient(); client != nil {
		if err := client.Ping(ctx).Err(); err == nil {
			cacheOK = true
		}
	}

	if !dbOK {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"database": dbOK,
		"cache":    cacheOK,
	})
}
