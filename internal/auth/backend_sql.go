package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/qes00/allahuv3/internal/config"
	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
	"github.com/qes00/allahuv3/internal/utils"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// ErrInvalidCredentials is the backend-reported message for a rejected
// password attempt; the manager surfaces it verbatim.
var ErrInvalidCredentials = errors.New("invalid credentials")

type eventDelivery struct {
	ev   Event
	sess *Session
}

// SQLBackend implements Backend over the MySQL account store: bcrypt-verified
// passwords, HS256 access tokens, hashed refresh tokens, and a Google OAuth
// code flow for federated sign-in. Auth-state events are delivered by a
// single dispatcher goroutine, one at a time, in emit order.
type SQLBackend struct {
	cfg      config.Config
	users    *repository.UserRepo
	tokens   *repository.TokenRepo
	profiles *repository.ProfileRepo
	oauth    *oauth2.Config // nil when Google sign-in is not configured

	mu        sync.Mutex
	current   *Session
	listeners map[int]func(Event, *Session)
	nextID    int
	states    map[string]time.Time // outstanding OAuth state nonces

	events chan eventDelivery
	done   chan struct{}
}

// NewSQLBackend wires the backend over an open database handle. Google
// sign-in is enabled only when both OAuth client values are configured.
func NewSQLBackend(db *sql.DB, cfg config.Config) *SQLBackend {
	b := &SQLBackend{
		cfg:       cfg,
		users:     repository.NewUserRepo(db),
		tokens:    repository.NewTokenRepo(db),
		profiles:  repository.NewProfileRepo(db),
		listeners: map[int]func(Event, *Session){},
		states:    map[string]time.Time{},
		events:    make(chan eventDelivery, 16),
		done:      make(chan struct{}),
	}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		b.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppBaseURL + "/v1/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	go b.dispatch()
	return b
}

// Close stops the event dispatcher. Pending events are dropped.
func (b *SQLBackend) Close() { close(b.done) }

func (b *SQLBackend) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case d := <-b.events:
			b.mu.Lock()
			fns := make([]func(Event, *Session), 0, len(b.listeners))
			for _, fn := range b.listeners {
				fns = append(fns, fn)
			}
			b.mu.Unlock()
			for _, fn := range fns {
				fn(d.ev, d.sess)
			}
		}
	}
}

func (b *SQLBackend) emit(ev Event, sess *Session) {
	select {
	case b.events <- eventDelivery{ev: ev, sess: sess}:
	default:
		log.Printf("auth: event queue full, dropping %s", ev)
	}
}

// OnAuthStateChange registers a listener and returns its removal function.
func (b *SQLBackend) OnAuthStateChange(fn func(Event, *Session)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// GetSession returns the backend's current session after re-validating it:
// an expired access token or a revoked refresh token yields nil.
func (b *SQLBackend) GetSession(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	cur := b.current
	b.mu.Unlock()
	if cur == nil {
		return nil, nil
	}
	if time.Now().UTC().After(cur.ExpiresAt) {
		hash := utils.HashRefreshRaw(cur.RefreshToken)
		if _, err := b.tokens.ValidateRefresh(ctx, hash); err != nil {
			b.mu.Lock()
			b.current = nil
			b.mu.Unlock()
			return nil, nil
		}
	}
	s := *cur
	return &s, nil
}

// SignInWithPassword verifies credentials and issues a fresh session.
func (b *SQLBackend) SignInWithPassword(ctx context.Context, email, password string) (Credentials, error) {
	u, err := b.users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return Credentials{}, ErrInvalidCredentials
		}
		return Credentials{}, fmt.Errorf("query user: %w", err)
	}
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, password) {
		return Credentials{}, ErrInvalidCredentials
	}
	sess, err := b.issueSession(ctx, u, nil)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: sess.User, Session: sess}, nil
}

// SignUp creates a password account and issues its first session. Profile
// provisioning is the manager's job, not the backend's.
func (b *SQLBackend) SignUp(ctx context.Context, email, password string) (Credentials, error) {
	id, err := b.users.Create(ctx, email, password, b.cfg.BcryptCost)
	if err != nil {
		return Credentials{}, err
	}
	u, err := b.users.GetByID(ctx, id)
	if err != nil {
		return Credentials{}, fmt.Errorf("load new user: %w", err)
	}
	sess, err := b.issueSession(ctx, u, nil)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: sess.User, Session: sess}, nil
}

// SignInWithOAuth builds the provider consent URL. The returned URL carries a
// one-time state nonce; the flow completes in CompleteOAuth when the provider
// redirects back.
func (b *SQLBackend) SignInWithOAuth(ctx context.Context, provider string, opts OAuthOptions) (string, error) {
	if provider != "google" || b.oauth == nil {
		return "", errors.New("google sign-in not configured")
	}
	state := uuid.NewString()
	b.mu.Lock()
	b.states[state] = time.Now().UTC().Add(10 * time.Minute)
	for s, exp := range b.states {
		if time.Now().UTC().After(exp) {
			delete(b.states, s)
		}
	}
	b.mu.Unlock()

	authOpts := make([]oauth2.AuthCodeOption, 0, len(opts.Params))
	for k, v := range opts.Params {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}
	return b.oauth.AuthCodeURL(state, authOpts...), nil
}

// CompleteOAuth exchanges the provider's code, provisions the federated
// account on first sign-in, and emits SIGNED_IN so subscribers resolve the
// profile. The userinfo display name rides along as the full_name hint.
func (b *SQLBackend) CompleteOAuth(ctx context.Context, state, code string) (Credentials, error) {
	if b.oauth == nil {
		return Credentials{}, errors.New("google sign-in not configured")
	}
	b.mu.Lock()
	exp, known := b.states[state]
	delete(b.states, state)
	b.mu.Unlock()
	if !known || time.Now().UTC().After(exp) {
		return Credentials{}, errors.New("invalid oauth state")
	}

	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return Credentials{}, fmt.Errorf("exchange code: %w", err)
	}
	info, err := b.fetchUserInfo(ctx, tok)
	if err != nil {
		return Credentials{}, err
	}
	if info.Email == "" {
		return Credentials{}, errors.New("provider returned no email")
	}

	u, err := b.users.GetOrCreateFederated(ctx, info.Email, "google")
	if err != nil {
		return Credentials{}, fmt.Errorf("provision federated user: %w", err)
	}
	sess, err := b.issueSession(ctx, u, map[string]string{"full_name": info.Name})
	if err != nil {
		return Credentials{}, err
	}
	b.emit(EventSignedIn, sess)
	return Credentials{User: sess.User, Session: sess}, nil
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (b *SQLBackend) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (googleUserInfo, error) {
	var info googleUserInfo
	resp, err := b.oauth.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return info, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return info, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode userinfo: %w", err)
	}
	return info, nil
}

// SignOut revokes the current session's refresh tokens (best-effort) and
// emits SIGNED_OUT.
func (b *SQLBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	cur := b.current
	b.current = nil
	b.mu.Unlock()

	var err error
	if cur != nil {
		err = b.tokens.RevokeAllForUser(ctx, cur.User.ID)
	}
	b.emit(EventSignedOut, nil)
	return err
}

// issueSession mints the access + refresh token pair for a user and records
// it as the backend's current session. The role claim comes from the profile
// row, defaulting to customer when the row is absent.
func (b *SQLBackend) issueSession(ctx context.Context, u model.User, meta map[string]string) (*Session, error) {
	role := string(RoleCustomer)
	if p, err := b.profiles.Get(ctx, u.ID); err == nil && p.Role != "" {
		role = p.Role
	}
	access, err := utils.NewAccessToken(b.cfg.JWTSecret, u.ID, role, b.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(b.cfg.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := b.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	sess := &Session{
		User:         BackendUser{ID: u.ID, Email: u.Email, Metadata: meta},
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		ExpiresAt:    access.Exp,
	}
	b.mu.Lock()
	b.current = sess
	b.mu.Unlock()
	return sess, nil
}
