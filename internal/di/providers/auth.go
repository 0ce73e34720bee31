package providers

import (
	"github.com/samber/do/v2"

	"github.com/ManakRaj-7/AnonVerse/internal/authkit"
	"github.com/ManakRaj-7/AnonVerse/internal/config"
	"github.com/ManakRaj-7/AnonVerse/internal/logger"
)

// SessionKey wraps the hex-encoded session token key.
type SessionKey string

// ProvideSessionKey loads or generates the session token key.
func ProvideSessionKey(i do.Injector) (SessionKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex := cfg.Auth.SessionKey
	if keyHex == "" {
		generated, err := authkit.LoadOrGenerateKey(cfg.Data.Dir)
		if err != nil {
			return "", err
		}
		keyHex = generated
		cfg.Auth.SessionKey = generated
	}

	log.Info("Session key loaded", "session_duration", cfg.Auth.SessionDuration)
	return SessionKey(keyHex), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*authkit.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[SessionKey](i)

	return authkit.NewTokenService(string(key), cfg.Auth.SessionDuration)
}

// ProvideMailer provides the confirmation-message transport. The local
// provider logs the confirmation token instead of sending mail.
func ProvideMailer(i do.Injector) (authkit.Mailer, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &authkit.LogMailer{Logger: log.Logger}, nil
}

// ProvideLocalAuth provides the local identity provider.
func ProvideLocalAuth(i do.Injector) (*authkit.Local, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tokens := do.MustInvoke[*authkit.TokenService](i)
	mailer := do.MustInvoke[authkit.Mailer](i)
	dataSvc := do.MustInvoke[*StoreHandle](i)

	return authkit.OpenLocal(dataSvc.Store, tokens, mailer, cfg.Data.Dir, log.Logger)
}

// ProvideAuthService exposes the local provider as the auth capability.
func ProvideAuthService(i do.Injector) (authkit.Service, error) {
	return do.MustInvoke[*authkit.Local](i), nil
}
