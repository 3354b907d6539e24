package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
)

type fakeBackend struct {
	mu        sync.Mutex
	session   *Session // returned by GetSession
	signInErr error
	signUpErr error
	creds     Credentials
	outErr    error // returned by SignOut
	listeners []func(Event, *Session)
}

func (f *fakeBackend) GetSession(context.Context) (*Session, error) { return f.session, nil }

func (f *fakeBackend) OnAuthStateChange(fn func(Event, *Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeBackend) fire(ev Event, s *Session) {
	f.mu.Lock()
	fns := append([]func(Event, *Session){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev, s)
	}
}

func (f *fakeBackend) SignInWithPassword(context.Context, string, string) (Credentials, error) {
	if f.signInErr != nil {
		return Credentials{}, f.signInErr
	}
	return f.creds, nil
}

func (f *fakeBackend) SignInWithOAuth(_ context.Context, _ string, opts OAuthOptions) (string, error) {
	return "https://accounts.example/consent?redirect=" + opts.RedirectTo, nil
}

func (f *fakeBackend) SignUp(context.Context, string, string) (Credentials, error) {
	if f.signUpErr != nil {
		return Credentials{}, f.signUpErr
	}
	return f.creds, nil
}

func (f *fakeBackend) SignOut(context.Context) error { return f.outErr }

type fakeProfiles struct {
	mu        sync.Mutex
	rows      map[string]model.Profile
	getErr    error
	insertErr error
	inserts   int
	patches   int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: map[string]model.Profile{}}
}

func (f *fakeProfiles) Get(_ context.Context, id string) (model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.Profile{}, f.getErr
	}
	p, ok := f.rows[id]
	if !ok {
		return model.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Insert(_ context.Context, p model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.rows[p.ID] = p
	return nil
}

func (f *fakeProfiles) PatchNames(_ context.Context, id, first, last string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches++
	p := f.rows[id]
	if p.FirstName == "" && first != "" {
		p.FirstName = first
	}
	if p.LastName == "" && last != "" {
		p.LastName = last
	}
	f.rows[id] = p
	return nil
}

type fakeSnapshots struct {
	mu     sync.Mutex
	stored *AuthUser
	loads  int
	clears int
}

func (f *fakeSnapshots) Save(_ context.Context, user *AuthUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *user
	f.stored = &u
}

func (f *fakeSnapshots) Load(context.Context) (*AuthUser, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.stored == nil {
		return nil, false
	}
	u := *f.stored
	return &u, true
}

func (f *fakeSnapshots) Clear(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.stored = nil
}

func sessionFor(id, email, fullName string) *Session {
	var meta map[string]string
	if fullName != "" {
		meta = map[string]string{"full_name": fullName}
	}
	return &Session{
		User:        BackendUser{ID: id, Email: email, Metadata: meta},
		AccessToken: "access-" + id,
	}
}

func TestInitializeWithoutBackendDegradesSilently(t *testing.T) {
	m := NewManager(nil, newFakeProfiles(), nil, "http://localhost:3000")
	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateSignedOut, snap.State)
	assert.True(t, snap.Initialized)
	assert.Empty(t, snap.Err, "offline mode is not an error")
	assert.Nil(t, snap.User)
}

func TestInitializeRestoresExistingSession(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.rows["u1"] = model.Profile{ID: "u1", FirstName: "Ana", LastName: "Torres", Phone: "999", Role: "admin"}
	fb := &fakeBackend{session: sessionFor("u1", "ana@example.pe", "")}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateSignedIn, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, "Ana", snap.User.FirstName)
	assert.Equal(t, RoleAdmin, snap.User.Role)
	require.NotNil(t, snap.Session)
}

func TestInitializeIsIdempotent(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb, newFakeProfiles(), nil, "http://localhost:3000")
	m.Initialize(context.Background())
	m.Initialize(context.Background())
	assert.Len(t, fb.listeners, 1, "subscription registered exactly once")
}

func TestReconciliationProvisionsFromFederatedHint(t *testing.T) {
	profiles := newFakeProfiles()
	fb := &fakeBackend{}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	fb.fire(EventSignedIn, sessionFor("u7", "ana@example.pe", "Ana María Torres"))

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "Ana", snap.User.FirstName)
	assert.Equal(t, "María Torres", snap.User.LastName)
	assert.Equal(t, RoleCustomer, snap.User.Role)
	assert.Equal(t, 1, profiles.inserts)

	// Re-running reconciliation with the row populated is a no-op.
	fb.fire(EventSignedIn, sessionFor("u7", "ana@example.pe", "Ana María Torres"))
	assert.Equal(t, 1, profiles.inserts, "no second insert")
	assert.Equal(t, 0, profiles.patches, "populated fields never rewritten")
	assert.Equal(t, "Ana", profiles.rows["u7"].FirstName)
}

func TestReconciliationPatchesOnlyMissingFields(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.rows["u2"] = model.Profile{ID: "u2", FirstName: "Carla", Role: "customer"}
	fb := &fakeBackend{}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	fb.fire(EventSignedIn, sessionFor("u2", "carla@example.pe", "Otroname Quispe"))

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "Carla", snap.User.FirstName, "existing value kept")
	assert.Equal(t, "Quispe", snap.User.LastName, "missing value backfilled")
	assert.Equal(t, "Carla", profiles.rows["u2"].FirstName)
	assert.Equal(t, "Quispe", profiles.rows["u2"].LastName)
}

func TestReconciliationSwallowsFetchFailure(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.getErr = errors.New("profiles table down")
	fb := &fakeBackend{creds: Credentials{
		User:    BackendUser{ID: "u3", Email: "x@example.pe"},
		Session: sessionFor("u3", "x@example.pe", ""),
	}}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	res := m.SignIn(context.Background(), "x@example.pe", "secret123")

	assert.True(t, res.Success, "sign-in must not be blocked by profile sync")
	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Empty(t, snap.User.FirstName)
	assert.Equal(t, RoleCustomer, snap.User.Role)
}

func TestSignInResultCarriesOwnCredentials(t *testing.T) {
	profiles := newFakeProfiles()
	fb := &fakeBackend{creds: Credentials{
		User:    BackendUser{ID: "ua", Email: "a@example.pe"},
		Session: sessionFor("ua", "a@example.pe", ""),
	}}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	resA := m.SignIn(context.Background(), "a@example.pe", "secret123")
	require.True(t, resA.Success)

	// A later sign-in replaces the shared state; the first result must keep
	// describing its own call.
	fb.creds = Credentials{
		User:    BackendUser{ID: "ub", Email: "b@example.pe"},
		Session: sessionFor("ub", "b@example.pe", ""),
	}
	resB := m.SignIn(context.Background(), "b@example.pe", "secret123")
	require.True(t, resB.Success)

	require.NotNil(t, resA.User)
	assert.Equal(t, "ua", resA.User.ID)
	require.NotNil(t, resA.Session)
	assert.Equal(t, "access-ua", resA.Session.AccessToken)
	require.NotNil(t, resB.User)
	assert.Equal(t, "ub", resB.User.ID)
	assert.Equal(t, "ub", m.Snapshot().User.ID, "shared state tracks the latest call only")
}

func TestSignInWithoutSessionStopsLoading(t *testing.T) {
	fb := &fakeBackend{creds: Credentials{
		User: BackendUser{ID: "u5", Email: "pending@example.pe"},
		// No session: the account exists but is not usable yet.
	}}
	m := NewManager(fb, newFakeProfiles(), nil, "http://localhost:3000")
	m.Initialize(context.Background())

	res := m.SignIn(context.Background(), "pending@example.pe", "secret123")

	assert.True(t, res.Success)
	assert.Nil(t, res.Session)
	snap := m.Snapshot()
	assert.False(t, snap.Loading, "operation is over even without a session")
	assert.Nil(t, snap.User, "nothing installed without credentials")
}

func TestSnapshotSavedOnSignInClearedOnSignOut(t *testing.T) {
	cache := &fakeSnapshots{}
	fb := &fakeBackend{creds: Credentials{
		User:    BackendUser{ID: "u1", Email: "ana@example.pe"},
		Session: sessionFor("u1", "ana@example.pe", ""),
	}}
	m := NewManager(fb, newFakeProfiles(), cache, "http://localhost:3000")
	m.Initialize(context.Background())

	res := m.SignIn(context.Background(), "ana@example.pe", "secret123")
	require.True(t, res.Success)
	require.NotNil(t, cache.stored)
	assert.Equal(t, "u1", cache.stored.ID)

	m.SignOut(context.Background())
	assert.Nil(t, cache.stored)
	assert.NotZero(t, cache.clears)
}

func TestInitializeClearsStaleSnapshot(t *testing.T) {
	cache := &fakeSnapshots{stored: &AuthUser{ID: "old", Email: "old@example.pe"}}
	fb := &fakeBackend{} // no live session
	m := NewManager(fb, newFakeProfiles(), cache, "http://localhost:3000")

	m.Initialize(context.Background())

	assert.Equal(t, 1, cache.loads, "persisted identity is consulted")
	assert.Nil(t, cache.stored, "failed re-validation discards the record")
	assert.Nil(t, m.Snapshot().User)
	assert.Equal(t, StateSignedOut, m.Snapshot().State)
}

func TestInitializeReplacesCachedIdentityWithLiveResolution(t *testing.T) {
	cache := &fakeSnapshots{stored: &AuthUser{ID: "old", Email: "old@example.pe"}}
	profiles := newFakeProfiles()
	profiles.rows["u1"] = model.Profile{ID: "u1", FirstName: "Ana", Role: "customer"}
	fb := &fakeBackend{session: sessionFor("u1", "ana@example.pe", "")}
	m := NewManager(fb, profiles, cache, "http://localhost:3000")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "u1", snap.User.ID)
	require.NotNil(t, cache.stored)
	assert.Equal(t, "u1", cache.stored.ID, "record refreshed from the live session")
}

func TestSignInBackendErrorLeavesStateUnchanged(t *testing.T) {
	fb := &fakeBackend{signInErr: errors.New("invalid credentials")}
	m := NewManager(fb, newFakeProfiles(), nil, "http://localhost:3000")
	m.Initialize(context.Background())

	res := m.SignIn(context.Background(), "ana@example.pe", "wrong")

	assert.False(t, res.Success)
	assert.Equal(t, "invalid credentials", res.Error)
	snap := m.Snapshot()
	assert.Nil(t, snap.User, "user stays as it was before the call")
	assert.Equal(t, StateSignedOut, snap.State)
	assert.Equal(t, "invalid credentials", snap.Err)

	m.ClearError()
	assert.Empty(t, m.Snapshot().Err)
}

func TestSignInWithGoogleReturnsRedirect(t *testing.T) {
	fb := &fakeBackend{}
	m := NewManager(fb, newFakeProfiles(), nil, "https://shop.example")
	m.Initialize(context.Background())

	res := m.SignInWithGoogle(context.Background())

	assert.True(t, res.Success, "success means the redirect was initiated")
	assert.Contains(t, res.RedirectURL, "redirect=https://shop.example/")
	assert.Nil(t, m.Snapshot().User, "completion arrives later via the subscription")
}

func TestSignUpProvisionsProfile(t *testing.T) {
	profiles := newFakeProfiles()
	fb := &fakeBackend{creds: Credentials{
		User:    BackendUser{ID: "u9", Email: "new@example.pe"},
		Session: sessionFor("u9", "new@example.pe", ""),
	}}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	res := m.SignUp(context.Background(), "new@example.pe", "longenough", "Luis", "Paredes")

	require.True(t, res.Success)
	assert.Equal(t, model.Profile{ID: "u9", FirstName: "Luis", LastName: "Paredes", Role: "customer"}, profiles.rows["u9"])
	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "Luis", snap.User.FirstName)
	assert.Equal(t, RoleCustomer, snap.User.Role)
	assert.Equal(t, StateSignedIn, snap.State)
}

func TestSignUpProfileFailurePropagates(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.insertErr = errors.New("insert denied")
	fb := &fakeBackend{creds: Credentials{
		User:    BackendUser{ID: "u10", Email: "new@example.pe"},
		Session: sessionFor("u10", "new@example.pe", ""),
	}}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())

	res := m.SignUp(context.Background(), "new@example.pe", "longenough", "", "")

	assert.False(t, res.Success, "an auth account without a profile is inconsistent")
	assert.Contains(t, res.Error, "insert denied")
}

func TestSignOutClearsEvenWhenBackendFails(t *testing.T) {
	profiles := newFakeProfiles()
	fb := &fakeBackend{
		session: sessionFor("u1", "ana@example.pe", ""),
		outErr:  errors.New("broker unreachable"),
	}
	m := NewManager(fb, profiles, nil, "http://localhost:3000")
	m.Initialize(context.Background())
	require.NotNil(t, m.Snapshot().User)

	m.SignOut(context.Background())

	snap := m.Snapshot()
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Session)
	assert.Equal(t, StateSignedOut, snap.State)
}

func TestSignedOutEventClearsState(t *testing.T) {
	fb := &fakeBackend{session: sessionFor("u1", "ana@example.pe", "")}
	m := NewManager(fb, newFakeProfiles(), nil, "http://localhost:3000")
	m.Initialize(context.Background())
	require.NotNil(t, m.Snapshot().User)

	fb.fire(EventSignedOut, nil)

	snap := m.Snapshot()
	assert.Nil(t, snap.User)
	assert.Equal(t, StateSignedOut, snap.State)
}

func TestSplitFullName(t *testing.T) {
	first, last := SplitFullName("Ana María Torres")
	assert.Equal(t, "Ana", first)
	assert.Equal(t, "María Torres", last)

	first, last = SplitFullName("Solo")
	assert.Equal(t, "Solo", first)
	assert.Empty(t, last)

	first, last = SplitFullName("  ")
	assert.Empty(t, first)
	assert.Empty(t, last)
}
