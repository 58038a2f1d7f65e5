package identity

import "time"

const (
	EventAccountRegistered      = "AccountRegistered"
	EventAccountProfileUpdated  = "AccountProfileUpdated"
	EventAccountPasswordChanged = "AccountPasswordChanged"
	EventAccountLoggedIn        = "AccountLoggedIn"
	EventAccountLoggedOut       = "AccountLoggedOut"
	EventAccountDeactivated     = "AccountDeactivated"
	EventAccountReactivated     = "AccountReactivated"
)

// AccountRegistered is emitted when a new account is created
type AccountRegistered struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountProfileUpdated is emitted when profile fields change
type AccountProfileUpdated struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountPasswordChanged carries the new hash only, never the password
type AccountPasswordChanged struct {
	UserID       string    `json:"user_id"`
	PasswordHash string    `json:"password_hash"`
	ChangedAt    time.Time `json:"changed_at"`
}

// AccountLoggedIn is emitted on successful credential verification
type AccountLoggedIn struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	LoggedAt  time.Time `json:"logged_at"`
}

// AccountLoggedOut is emitted when a session is explicitly ended
type AccountLoggedOut struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	LoggedAt  time.Time `json:"logged_at"`
}

// AccountDeactivated is emitted when an account is disabled
type AccountDeactivated struct {
	UserID        string    `json:"user_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// AccountReactivated is emitted when a disabled account is restored
type AccountReactivated struct {
	UserID        string    `json:"user_id"`
	ReactivatedAt time.Time `json:"reactivated_at"`
}
