package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/ManakRaj-7/AnonVerse/internal/authkit"
	"github.com/ManakRaj-7/AnonVerse/internal/data"
	"github.com/ManakRaj-7/AnonVerse/internal/logger"
	"github.com/ManakRaj-7/AnonVerse/internal/service"
	"github.com/ManakRaj-7/AnonVerse/internal/validation"
)

// ProvideValidator provides the input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// SessionStoreHandle wraps the session store for lifecycle management.
type SessionStoreHandle struct {
	*service.SessionStore
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.SessionStore.Close()
}

// ProvideSessionStore provides the started session store.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	auth := do.MustInvoke[authkit.Service](i)
	dataSvc := do.MustInvoke[data.Service](i)
	local := do.MustInvoke[*LocalStateHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	sessions := service.NewSessionStore(auth, dataSvc, local.Store, v, log.Logger)
	if err := sessions.Start(context.Background()); err != nil {
		return nil, err
	}
	return &SessionStoreHandle{SessionStore: sessions}, nil
}

// ProvideFeedService provides the feed aggregator.
func ProvideFeedService(i do.Injector) (*service.FeedService, error) {
	dataSvc := do.MustInvoke[data.Service](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedService(dataSvc, sessions.SessionStore, log.Logger), nil
}

// ProvideEngagementService provides like/unlike/comment mutations.
func ProvideEngagementService(i do.Injector) (*service.EngagementService, error) {
	dataSvc := do.MustInvoke[data.Service](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	feed := do.MustInvoke[*service.FeedService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEngagementService(dataSvc, sessions.SessionStore, feed, log.Logger), nil
}

// ProvideSocialService provides the social graph tracker.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	dataSvc := do.MustInvoke[data.Service](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(dataSvc, sessions.SessionStore, log.Logger), nil
}

// ProvidePoemService provides poem publishing.
func ProvidePoemService(i do.Injector) (*service.PoemService, error) {
	dataSvc := do.MustInvoke[data.Service](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPoemService(dataSvc, sessions.SessionStore, v, log.Logger), nil
}

// ProvideProfileService provides profile reads and updates.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	dataSvc := do.MustInvoke[data.Service](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(dataSvc, sessions.SessionStore, v, log.Logger), nil
}
