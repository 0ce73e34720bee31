package authkit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"
	"github.com/ManakRaj-7/AnonVerse/internal/id"
	"github.com/ManakRaj-7/AnonVerse/internal/normalize"
	"github.com/ManakRaj-7/AnonVerse/internal/ratelimit"
)

// tokenFile is the on-disk name of the persisted session token. It is keyed
// apart from the guest-mode device state so either can be cleared without
// touching the other.
const tokenFile = "session_token"

// Resend throttling: one confirmation email per minute per address, with a
// small initial burst.
const (
	resendPerSecond = 1.0 / 60
	resendBurst     = 2
)

// Local is a data-layer-backed identity provider. It keeps accounts in the
// accounts table, provisions a profile row on sign-up (the remote provider
// does this with a database trigger), and persists the session token so a
// restarted client resumes its session.
type Local struct {
	data    data.Service
	tokens  *TokenService
	mailer  Mailer
	limiter *ratelimit.Keyed
	logger  *slog.Logger

	tokenPath string

	mu      sync.RWMutex
	current *Session

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// OpenLocal creates a local identity provider, restoring any persisted
// session token from dir.
func OpenLocal(dataSvc data.Service, tokens *TokenService, mailer Mailer, dir string, logger *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create auth dir: %w", err)
	}

	l := &Local{
		data:      dataSvc,
		tokens:    tokens,
		mailer:    mailer,
		limiter:   ratelimit.New(resendPerSecond, resendBurst),
		logger:    logger,
		tokenPath: filepath.Join(dir, tokenFile),
		subs:      make(map[int]chan Event),
	}

	l.restoreSession()
	return l, nil
}

// restoreSession loads and verifies the persisted token, if any.
func (l *Local) restoreSession() {
	raw, err := os.ReadFile(l.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("Failed to read session token file", "error", err)
		}
		return
	}

	claims, err := l.tokens.VerifySessionToken(string(raw))
	if err != nil {
		// Expired or tampered; drop it.
		_ = os.Remove(l.tokenPath)
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, claims.Expiry)
	if err != nil {
		_ = os.Remove(l.tokenPath)
		return
	}

	l.current = &Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Token:     string(raw),
		ExpiresAt: expiresAt,
	}
}

// CurrentSession implements Service.
func (l *Local) CurrentSession(_ context.Context) (*Session, error) {
	l.mu.RLock()
	session := l.current
	l.mu.RUnlock()

	if session == nil {
		return nil, nil
	}
	if time.Now().After(session.ExpiresAt) {
		// Session expired while the client was idle.
		l.clearSession()
		l.emit(Event{Type: EventSignedOut})
		return nil, nil
	}
	snapshot := *session
	return &snapshot, nil
}

// Subscribe implements Service.
func (l *Local) Subscribe() (<-chan Event, func()) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()

	ch := make(chan Event, 8)
	key := l.nextSub
	l.nextSub++
	l.subs[key] = ch

	return ch, func() {
		l.subsMu.Lock()
		defer l.subsMu.Unlock()
		if _, ok := l.subs[key]; ok {
			delete(l.subs, key)
			close(ch)
		}
	}
}

// SignIn implements Service.
func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := l.accountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		// Don't leak whether the email exists.
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	hash, _ := account["password_hash"].(string)
	valid, err := VerifyPassword(hash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if confirmed, _ := account["confirmed"].(int64); confirmed == 0 {
		return nil, domainerrors.UnconfirmedAccount("confirm your email before signing in")
	}

	userID, _ := account["id"].(string)
	session, err := l.startSession(userID, normalize.Email(email))
	if err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.Info("Signed in", "user_id", userID)
	}
	return session, nil
}

// SignUp implements Service. The new account awaits email confirmation, so
// the returned session is nil.
func (l *Local) SignUp(ctx context.Context, email, password, penName string) (*Session, error) {
	normalizedEmail := normalize.Email(email)
	pen := normalize.PenName(penName)
	if normalizedEmail == "" || password == "" || pen == "" {
		return nil, domainerrors.Validation("email, password and pen name are required")
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, domainerrors.Validation("invalid password").WithCause(err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	confirmToken := uuid.NewString()
	now := data.FormatTime(time.Now())

	err = l.data.Insert(ctx, data.TableAccounts, data.Row{
		"id":                 userID,
		"email":              email,
		"email_lower":        normalizedEmail,
		"password_hash":      passwordHash,
		"confirmed":          0,
		"confirmation_token": confirmToken,
		"pen_name":           pen,
		"created_at":         now,
		"updated_at":         now,
	})
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrUniqueViolation) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	// Provision the public profile alongside the account.
	err = l.data.Insert(ctx, data.TableProfiles, data.Row{
		"id":           userID,
		"pen_name":     pen,
		"pen_name_key": normalize.PenNameKey(pen),
		"created_at":   now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := l.mailer.SendConfirmation(ctx, normalizedEmail, confirmToken); err != nil {
		// The account exists and can be confirmed later via resend.
		if l.logger != nil {
			l.logger.Warn("Confirmation delivery failed at sign-up", "error", err)
		}
	}

	if l.logger != nil {
		l.logger.Info("Account created, confirmation pending", "user_id", userID)
	}
	return nil, nil
}

// SignOut implements Service.
func (l *Local) SignOut(_ context.Context) error {
	l.mu.RLock()
	hadSession := l.current != nil
	l.mu.RUnlock()
	if !hadSession {
		return nil
	}

	l.clearSession()
	l.emit(Event{Type: EventSignedOut})

	if l.logger != nil {
		l.logger.Info("Signed out")
	}
	return nil
}

// ResendConfirmation implements Service.
func (l *Local) ResendConfirmation(ctx context.Context, email string) error {
	normalizedEmail := normalize.Email(email)

	if !l.limiter.Allow("resend:" + normalizedEmail) {
		return domainerrors.Delivery("too many confirmation requests, try again later")
	}

	account, err := l.accountByEmail(ctx, normalizedEmail)
	if err != nil {
		return err
	}
	if account == nil {
		return domainerrors.NotFound("no account for that email")
	}
	if confirmed, _ := account["confirmed"].(int64); confirmed != 0 {
		return nil
	}

	token, _ := account["confirmation_token"].(string)
	if token == "" {
		token = uuid.NewString()
		userID, _ := account["id"].(string)
		err := l.data.Update(ctx, data.TableAccounts,
			data.Row{"confirmation_token": token, "updated_at": data.FormatTime(time.Now())},
			data.Eq("id", userID))
		if err != nil {
			return fmt.Errorf("refresh confirmation token: %w", err)
		}
	}

	if err := l.mailer.SendConfirmation(ctx, normalizedEmail, token); err != nil {
		return domainerrors.Delivery("confirmation delivery failed").WithCause(err)
	}
	return nil
}

// Confirm completes email confirmation with the token from the confirmation
// message. Not part of the Service interface; the remote provider confirms
// out of band via its own link handler.
func (l *Local) Confirm(ctx context.Context, token string) error {
	rows, err := l.data.Select(ctx, data.Query{
		Table:   data.TableAccounts,
		Filters: []data.Filter{data.Eq("confirmation_token", token)},
	})
	if err != nil {
		return fmt.Errorf("lookup confirmation token: %w", err)
	}
	if len(rows) == 0 {
		return domainerrors.NotFound("unknown confirmation token")
	}

	userID, _ := rows[0]["id"].(string)
	err = l.data.Update(ctx, data.TableAccounts,
		data.Row{"confirmed": 1, "confirmation_token": nil, "updated_at": data.FormatTime(time.Now())},
		data.Eq("id", userID))
	if err != nil {
		return fmt.Errorf("mark account confirmed: %w", err)
	}

	if l.logger != nil {
		l.logger.Info("Account confirmed", "user_id", userID)
	}
	return nil
}

// startSession issues a token, persists it, and publishes the sign-in event.
func (l *Local) startSession(userID, email string) (*Session, error) {
	token, expiresAt, err := l.tokens.GenerateSessionToken(userID, email, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	session := &Session{UserID: userID, Email: email, Token: token, ExpiresAt: expiresAt}

	if err := os.WriteFile(l.tokenPath, []byte(token), 0o600); err != nil {
		// Session still works for this process; it just won't survive a restart.
		if l.logger != nil {
			l.logger.Warn("Failed to persist session token", "error", err)
		}
	}

	l.mu.Lock()
	l.current = session
	l.mu.Unlock()

	snapshot := *session
	l.emit(Event{Type: EventSignedIn, Session: &snapshot})
	return session, nil
}

// clearSession drops the in-memory session and the persisted token.
func (l *Local) clearSession() {
	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()
	_ = os.Remove(l.tokenPath)
}

// accountByEmail returns the account row, or nil when none exists.
func (l *Local) accountByEmail(ctx context.Context, email string) (data.Row, error) {
	rows, err := l.data.Select(ctx, data.Query{
		Table:   data.TableAccounts,
		Filters: []data.Filter{data.Eq("email_lower", normalize.Email(email))},
	})
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// emit fans an event out to subscribers without blocking.
func (l *Local) emit(event Event) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- event:
		default:
			if l.logger != nil {
				l.logger.Debug("Dropping session event for slow subscriber", "type", event.Type)
			}
		}
	}
}
