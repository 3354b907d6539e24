// Package auth owns the client-side representation of "who is logged in".
// It consumes an identity backend through a narrow contract, reconciles the
// backend's profile rows with federated-login hints, and keeps an advisory
// snapshot of the signed-in identity across restarts.
package auth

import (
	"context"
	"time"

	"github.com/qes00/allahuv3/internal/model"
)

// Role values stored in user_profiles.role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// AuthUser is the resolved, display-ready identity: backend account fields
// merged with the profile row. It is a projection of remote state, rebuilt on
// every sign-in, sign-up and session restore.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
}

// BackendUser is the identity backend's own record of an account. Metadata
// carries unstructured hints from federated providers; the "full_name" key
// holds the display name a Google account reports.
type BackendUser struct {
	ID       string
	Email    string
	Metadata map[string]string
}

// Session is the opaque credential bundle issued by the backend. Callers
// outside this package only ever test it for presence.
type Session struct {
	User         BackendUser
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Credentials is what a successful password or sign-up call returns.
type Credentials struct {
	User    BackendUser
	Session *Session
}

// Event names pushed by the backend's auth-state subscription.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// OAuthOptions parameterizes a federated redirect flow.
type OAuthOptions struct {
	RedirectTo string            // where the provider sends the user afterwards
	Params     map[string]string // extra query params (access_type, prompt, ...)
}

// Backend is the consumed identity-backend contract. Implementations must
// deliver auth-state events one at a time, in order.
type Backend interface {
	// GetSession returns the current session, or nil when none exists.
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers a standing listener for SIGNED_IN /
	// SIGNED_OUT events and returns a function that removes it.
	OnAuthStateChange(fn func(Event, *Session)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (Credentials, error)
	// SignInWithOAuth returns the provider consent URL; "success" means the
	// redirect was initiated, completion arrives via OnAuthStateChange.
	SignInWithOAuth(ctx context.Context, provider string, opts OAuthOptions) (string, error)
	SignUp(ctx context.Context, email, password string) (Credentials, error)
	SignOut(ctx context.Context) error
}

// ProfileStore is the point select/insert/patch surface over the profile
// table that reconciliation needs. *repository.ProfileRepo satisfies it; the
// Get implementation reports a missing row as repository.ErrNotFound.
type ProfileStore interface {
	Get(ctx context.Context, id string) (model.Profile, error)
	Insert(ctx context.Context, p model.Profile) error
	PatchNames(ctx context.Context, id, first, last string) error
}
