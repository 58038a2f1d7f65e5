package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/example/craftshop/internal/auth"
	"github.com/example/craftshop/internal/domain/aggregate"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Account"

// Role controls what an authenticated account may do. Admins manage the
// catalog and the fulfillment pipeline; customers shop.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidRole        = errors.New("unknown role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// Account is the event-sourced identity aggregate
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

func (a *Account) GetID() string    { return a.ID }
func (a *Account) GetVersion() int  { return a.Version }
func (a *Account) SetVersion(v int) { a.Version = v }

func (a *Account) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventAccountRegistered:
		var data AccountRegistered
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.ID = data.UserID
		a.Email = data.Email
		a.PasswordHash = data.PasswordHash
		a.Name = data.Name
		a.Role = data.Role
		a.IsActive = true
		a.CreatedAt = data.CreatedAt
		a.UpdatedAt = data.CreatedAt
	case EventAccountProfileUpdated:
		var data AccountProfileUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Name = data.Name
		a.UpdatedAt = data.UpdatedAt
	case EventAccountPasswordChanged:
		var data AccountPasswordChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.PasswordHash = data.PasswordHash
		a.UpdatedAt = data.ChangedAt
	case EventAccountDeactivated:
		var data AccountDeactivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.IsActive = false
		a.UpdatedAt = data.DeactivatedAt
	case EventAccountReactivated:
		var data AccountReactivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.IsActive = true
		a.UpdatedAt = data.ReactivatedAt
	}
	a.Version = event.Version
	return nil
}

// Service handles account registration and credential lifecycle
type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// Register creates a customer account
func (s *Service) Register(ctx context.Context, email, password, name string) (*Account, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleCustomer)
}

// RegisterAdmin creates a staff account
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name string) (*Account, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleAdmin)
}

func (s *Service) RegisterWithRole(ctx context.Context, email, password, name string, role Role) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	now := time.Now()

	event := AccountRegistered{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
	}

	stored, err := s.eventStore.Append(ctx, userID, AggregateType, EventAccountRegistered, event)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:        userID,
		Email:     email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if stored != nil {
		account.Version = stored.Version
	}
	return account, nil
}

// Get rebuilds an account from its event stream
func (s *Service) Get(ctx context.Context, userID string) (*Account, error) {
	account, found, err := aggregate.Load(ctx, s.eventStore, userID, func() *Account { return &Account{} })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// VerifyCredentials checks a password against the stored hash. Deactivated
// accounts fail even with the right password.
func (s *Service) VerifyCredentials(ctx context.Context, account *Account, password string) error {
	if !auth.CheckPassword(password, account.PasswordHash) {
		return ErrInvalidCredentials
	}
	if !account.IsActive {
		return ErrAccountDeactivated
	}
	return nil
}

// RecordLogin appends a login event for auditing
func (s *Service) RecordLogin(ctx context.Context, userID, sessionID, ipAddress, userAgent string) error {
	event := AccountLoggedIn{
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventAccountLoggedIn, event)
	return err
}

// RecordLogout appends a logout event for auditing
func (s *Service) RecordLogout(ctx context.Context, userID, sessionID string) error {
	event := AccountLoggedOut{
		UserID:    userID,
		SessionID: sessionID,
		LoggedAt:  time.Now(),
	}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventAccountLoggedOut, event)
	return err
}

// UpdateProfile changes the display name
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	event := AccountProfileUpdated{
		UserID:    userID,
		Name:      name,
		UpdatedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventAccountProfileUpdated, event)
	return err
}

// ChangePassword verifies the current password and stores a new hash
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(currentPassword, account.PasswordHash) {
		return ErrInvalidCredentials
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := AccountPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	}
	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventAccountPasswordChanged, event)
	return err
}

// Deactivate disables an account without deleting its history
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	event := AccountDeactivated{
		UserID:        userID,
		DeactivatedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventAccountDeactivated, event)
	return err
}

// Reactivate restores a deactivated account
func (s *Service) Reactivate(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	event := AccountReactivated{
		UserID:        userID,
		ReactivatedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventAccountReactivated, event)
	return err
}
