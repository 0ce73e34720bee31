// Package di provides dependency injection configuration for the AnonVerse
// client core.
package di

import (
	"github.com/samber/do/v2"

	"github.com/ManakRaj-7/AnonVerse/internal/authkit"
	"github.com/ManakRaj-7/AnonVerse/internal/config"
	"github.com/ManakRaj-7/AnonVerse/internal/di/providers"
	"github.com/ManakRaj-7/AnonVerse/internal/logger"
	"github.com/ManakRaj-7/AnonVerse/internal/service"
	"github.com/ManakRaj-7/AnonVerse/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Data layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideDataService)
	do.Provide(injector, providers.ProvideLocalState)

	// Auth layer
	do.Provide(injector, providers.ProvideSessionKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideMailer)
	do.Provide(injector, providers.ProvideLocalAuth)
	do.Provide(injector, providers.ProvideAuthService)

	// Client core services
	do.Provide(injector, providers.ProvideSessionStore)
	do.Provide(injector, providers.ProvideFeedService)
	do.Provide(injector, providers.ProvideEngagementService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvidePoemService)
	do.Provide(injector, providers.ProvideProfileService)

	return injector
}

// Bootstrap triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.LocalStateHandle](injector)

	_ = do.MustInvoke[providers.SessionKey](injector)
	_ = do.MustInvoke[*authkit.TokenService](injector)
	_ = do.MustInvoke[*authkit.Local](injector)

	_ = do.MustInvoke[*providers.SessionStoreHandle](injector)
	_ = do.MustInvoke[*service.FeedService](injector)
	_ = do.MustInvoke[*service.EngagementService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.PoemService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)

	return nil
}
