package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
)

// State of the session manager. Initializing is entered exactly once per
// process lifetime; Ready splits on whether a valid session exists.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateSignedOut
	StateSignedIn
)

// Result is the discriminated outcome of the public operations. Errors are
// carried as messages, never thrown across this boundary, so callers can
// render them without exception machinery. User and Session belong to the
// call that produced them: the manager also tracks the most recent sign-in
// process-wide, but concurrent callers must answer from their own Result,
// never from the shared state.
type Result struct {
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"` // set by SignInWithGoogle
	User        *AuthUser `json:"user,omitempty"`         // identity resolved by this call
	Session     *Session  `json:"session,omitempty"`      // credentials issued by this call
}

// Snapshot is a read-mostly copy of the manager's state for the UI layer.
type Snapshot struct {
	State       State
	User        *AuthUser
	Session     *Session
	Loading     bool
	Initialized bool
	Err         string
}

// Manager reconciles the remote identity backend with the local session
// state. All "resolve profile and set state" sequences run under one mutex so
// a subscription event can never interleave with a manual sign-in that is
// mid-resolution.
type Manager struct {
	backend  Backend       // nil when the identity backend is unconfigured
	profiles ProfileStore  // nil tolerated: resolution degrades to defaults
	cache    SnapshotStore // nil tolerated: no persisted snapshot
	baseURL  string        // application root, target of OAuth redirects

	mu          sync.Mutex
	state       State
	user        *AuthUser
	session     *Session
	loading     bool
	initialized bool
	lastErr     string
	unsubscribe func()
}

// NewManager builds an uninitialized manager. A nil backend puts the manager
// in degraded/offline mode: Initialize still succeeds and every credentialed
// operation reports a configuration message.
func NewManager(b Backend, p ProfileStore, cache SnapshotStore, baseURL string) *Manager {
	return &Manager{backend: b, profiles: p, cache: cache, baseURL: baseURL, state: StateUninitialized}
}

// Initialize restores an existing session (if any) and registers the
// long-lived auth-state subscription. It is idempotent: only the first call
// does work. Backend unavailability is a degraded mode, not a failure — no
// error is surfaced to the user.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	if m.initialized || m.state == StateInitializing {
		m.mu.Unlock()
		return
	}
	m.state = StateInitializing
	m.loading = true
	m.mu.Unlock()

	if m.backend == nil {
		log.Printf("auth: backend not configured, running signed-out")
		m.mu.Lock()
		m.state = StateSignedOut
		m.loading = false
		m.initialized = true
		m.mu.Unlock()
		return
	}

	if m.cache != nil {
		if cached, ok := m.cache.Load(ctx); ok {
			// Provisional identity until the backend answers: readers see the
			// last signed-in user instead of a signed-out flash. Re-validation
			// below either replaces it with the live resolution or clears it.
			m.mu.Lock()
			m.user = cached
			m.mu.Unlock()
			log.Printf("auth: restored cached identity %s, revalidating", cached.Email)
		}
	}

	sess, err := m.backend.GetSession(ctx)
	if err != nil {
		log.Printf("auth: session restore failed: %v", err)
		sess = nil
	}
	if sess != nil {
		m.resolveAndSet(ctx, sess)
	} else {
		m.mu.Lock()
		m.user, m.session = nil, nil
		m.state = StateSignedOut
		m.mu.Unlock()
		if m.cache != nil {
			m.cache.Clear(ctx)
		}
	}

	// Standing subscription for the remainder of the process lifetime. The
	// backend delivers events sequentially; each handler run re-enters the
	// same mutex-guarded resolve path as the manual operations.
	m.unsubscribe = m.backend.OnAuthStateChange(func(ev Event, s *Session) {
		ctx := context.Background()
		switch ev {
		case EventSignedIn:
			if s != nil {
				m.resolveAndSet(ctx, s)
			}
		case EventSignedOut:
			m.clearLocal(ctx)
		}
	})

	m.mu.Lock()
	m.loading = false
	m.initialized = true
	m.mu.Unlock()
}

// Dispose removes the auth-state subscription. Safe to call more than once.
func (m *Manager) Dispose() {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// SignIn attempts password authentication. A backend-reported error is
// recorded and returned; local user state is left as it was.
func (m *Manager) SignIn(ctx context.Context, email, password string) Result {
	if m.backend == nil {
		return Result{Error: "auth backend not configured"}
	}
	m.beginOperation()
	creds, err := m.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.failOperation(err.Error())
		return Result{Error: err.Error()}
	}
	user, sess := m.resolveAndSet(ctx, creds.Session)
	return Result{Success: true, User: user, Session: sess}
}

// SignInWithGoogle initiates the federated redirect flow. Success means the
// redirect was initiated; completion is observed later through the
// subscription registered by Initialize.
func (m *Manager) SignInWithGoogle(ctx context.Context) Result {
	if m.backend == nil {
		return Result{Error: "auth backend not configured"}
	}
	m.beginOperation()
	url, err := m.backend.SignInWithOAuth(ctx, "google", OAuthOptions{
		RedirectTo: m.baseURL + "/",
		Params: map[string]string{
			"access_type": "offline",
			"prompt":      "consent",
		},
	})
	if err != nil {
		m.failOperation(err.Error())
		return Result{Error: err.Error()}
	}
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	return Result{Success: true, RedirectURL: url}
}

// SignUp creates an account and provisions its profile row. Unlike profile
// reads during sign-in, a provisioning failure here propagates: an auth
// account without a profile is an inconsistent result the caller must see.
// Password length and confirmation are the caller's responsibility.
func (m *Manager) SignUp(ctx context.Context, email, password, firstName, lastName string) Result {
	if m.backend == nil {
		return Result{Error: "auth backend not configured"}
	}
	m.beginOperation()
	creds, err := m.backend.SignUp(ctx, email, password)
	if err != nil {
		m.failOperation(err.Error())
		return Result{Error: err.Error()}
	}
	if err := m.ensureProfile(ctx, creds.User.ID, firstName, lastName); err != nil {
		msg := "failed to create profile: " + err.Error()
		m.failOperation(msg)
		return Result{Error: msg}
	}

	u := AuthUser{
		ID:        creds.User.ID,
		Email:     creds.User.Email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      RoleCustomer,
	}
	m.mu.Lock()
	installed := u
	m.user = &installed
	m.session = creds.Session
	if creds.Session != nil {
		m.state = StateSignedIn
	}
	m.loading = false
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.Save(ctx, &u)
	}
	return Result{Success: true, User: &u, Session: creds.Session}
}

// SignOut clears local state unconditionally; the backend call is
// best-effort because the user-visible contract is "logged out locally".
func (m *Manager) SignOut(ctx context.Context) {
	if m.backend != nil {
		if err := m.backend.SignOut(ctx); err != nil {
			log.Printf("auth: backend sign-out failed: %v", err)
		}
	}
	m.clearLocal(ctx)
}

// ClearError resets the last recorded error without other side effects.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		State:       m.state,
		Loading:     m.loading,
		Initialized: m.initialized,
		Err:         m.lastErr,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	if m.session != nil {
		s := *m.session
		snap.Session = &s
	}
	return snap
}

// IsAuthenticated reports whether a resolved user is present.
func (m *Manager) IsAuthenticated() bool { return m.Snapshot().User != nil }

// IsAdmin reports whether the resolved user carries the admin role.
func (m *Manager) IsAdmin() bool {
	s := m.Snapshot()
	return s.User != nil && s.User.Role == RoleAdmin
}

// ----- internal -----

func (m *Manager) beginOperation() {
	m.mu.Lock()
	m.loading = true
	m.lastErr = ""
	m.mu.Unlock()
}

func (m *Manager) failOperation(msg string) {
	m.mu.Lock()
	m.loading = false
	m.lastErr = msg
	m.mu.Unlock()
}

// resolveAndSet runs the whole "resolve profile, then install user+session"
// sequence under the mutex so concurrent sequences serialize instead of
// interleaving partial writes. It returns copies of what it resolved so the
// caller can answer with the outcome of this call even if another sequence
// replaces the shared state right after.
func (m *Manager) resolveAndSet(ctx context.Context, sess *Session) (*AuthUser, *Session) {
	if sess == nil {
		// Some backends answer without a session (a sign-up pending email
		// confirmation does this). Nothing to install, but the operation is
		// over: stop loading and leave the current user as it was.
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		return nil, nil
	}
	m.mu.Lock()
	user := m.resolveProfile(ctx, sess.User)
	installed := user
	m.user = &installed
	m.session = sess
	m.state = StateSignedIn
	m.loading = false
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.Save(ctx, &user)
	}
	out := user
	sc := *sess
	return &out, &sc
}

func (m *Manager) clearLocal(ctx context.Context) {
	m.mu.Lock()
	m.user = nil
	m.session = nil
	if m.state != StateUninitialized {
		m.state = StateSignedOut
	}
	m.loading = false
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.Clear(ctx)
	}
}

// resolveProfile merges the backend account with its profile row, backfilling
// structured names from the federated display-name hint. All storage errors
// degrade to "no profile data available": sign-in is never blocked by a
// profile-sync failure.
func (m *Manager) resolveProfile(ctx context.Context, bu BackendUser) AuthUser {
	out := AuthUser{ID: bu.ID, Email: bu.Email, Role: RoleCustomer}
	if m.profiles == nil {
		return out
	}
	first, last := SplitFullName(fullNameHint(bu))

	p, err := m.profiles.Get(ctx, bu.ID)
	if errors.Is(err, repository.ErrNotFound) {
		if first == "" && last == "" {
			return out
		}
		// Auto-provision from the hint; re-running later is a no-op because
		// the row will then exist with these names.
		if insErr := m.profiles.Insert(ctx, model.Profile{
			ID: bu.ID, FirstName: first, LastName: last, Role: string(RoleCustomer),
		}); insErr != nil {
			log.Printf("auth: profile auto-provision failed for %s: %v", bu.ID, insErr)
			return out
		}
		out.FirstName, out.LastName = first, last
		return out
	}
	if err != nil {
		log.Printf("auth: profile fetch failed for %s: %v", bu.ID, err)
		return out
	}

	// Patch only the fields that are missing remotely; a populated field is
	// never overwritten.
	patchFirst, patchLast := "", ""
	if p.FirstName == "" && first != "" {
		patchFirst = first
	}
	if p.LastName == "" && last != "" {
		patchLast = last
	}
	if patchFirst != "" || patchLast != "" {
		if err := m.profiles.PatchNames(ctx, bu.ID, patchFirst, patchLast); err != nil {
			log.Printf("auth: profile name sync failed for %s: %v", bu.ID, err)
		} else {
			if patchFirst != "" {
				p.FirstName = patchFirst
			}
			if patchLast != "" {
				p.LastName = patchLast
			}
		}
	}

	out.FirstName = p.FirstName
	out.LastName = p.LastName
	out.Phone = p.Phone
	if p.Role != "" {
		out.Role = Role(p.Role)
	}
	return out
}

// ensureProfile creates the profile row during sign-up when it does not
// already exist. Unlike resolveProfile, failures here are returned.
func (m *Manager) ensureProfile(ctx context.Context, id, firstName, lastName string) error {
	if m.profiles == nil {
		return errors.New("profile store unavailable")
	}
	_, err := m.profiles.Get(ctx, id)
	if err == nil {
		return nil // row already exists (e.g. provisioned by a trigger)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return m.profiles.Insert(ctx, model.Profile{
		ID: id, FirstName: firstName, LastName: lastName, Role: string(RoleCustomer),
	})
}

// fullNameHint extracts the federated display name from account metadata.
func fullNameHint(bu BackendUser) string {
	if bu.Metadata == nil {
		return ""
	}
	if v := bu.Metadata["full_name"]; v != "" {
		return v
	}
	return bu.Metadata["name"]
}

// SplitFullName splits a display name into structured parts: the first
// whitespace-delimited token is the first name, the remainder the last name.
func SplitFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
