// Package main provides the entry point for the AnonVerse client core.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/ManakRaj-7/AnonVerse/internal/di"
	"github.com/ManakRaj-7/AnonVerse/internal/di/providers"
	"github.com/ManakRaj-7/AnonVerse/internal/logger"
	"github.com/ManakRaj-7/AnonVerse/internal/service"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap client core: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	sessions := do.MustInvoke[*providers.SessionStoreHandle](injector)
	feed := do.MustInvoke[*service.FeedService](injector)

	// Browse as a guest when there is no restored session so the feed
	// refresh below has a tier that can see it.
	if sessions.State() != service.SessionAuthenticated {
		if err := sessions.EnterGuest(); err != nil {
			log.Warn("Failed to enter guest mode", "error", err)
		}
	}

	items, err := feed.Fetch(context.Background())
	if err != nil {
		log.Warn("Initial feed refresh failed", "error", err)
	} else {
		for _, item := range items {
			log.Info("Feed item",
				"poem_id", item.Poem.ID,
				"title", item.Poem.Title,
				"author", item.Author.PenName,
				"likes", item.Engagement.LikeCount,
				"comments", item.Engagement.CommentCount,
			)
		}
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down client core gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// Database and local state use wrapper types, close them explicitly
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing database...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close database", "error", err)
		} else {
			log.Info("Database closed successfully")
		}
	}

	if stateHandle, err := do.Invoke[*providers.LocalStateHandle](injector); err == nil {
		if err := stateHandle.Shutdown(); err != nil {
			log.Error("Failed to close local state", "error", err)
		}
	}

	log.Info("See you space cowboy...")
}
