package cart

import (
	"errors"
	"sort"
	"strings"
)

var ErrInvalidOwner = errors.New("cart owner must be exactly one of user or session")

// OwnerKey scopes a cart to exactly one of an authenticated user or an
// anonymous browser session. It is threaded explicitly through every cart
// operation; there is no ambient session state.
type OwnerKey struct {
	UserID    string
	SessionID string
}

func UserOwner(userID string) OwnerKey       { return OwnerKey{UserID: userID} }
func SessionOwner(sessionID string) OwnerKey { return OwnerKey{SessionID: sessionID} }

func (k OwnerKey) Validate() error {
	if (k.UserID == "") == (k.SessionID == "") {
		return ErrInvalidOwner
	}
	return nil
}

// CartID derives the aggregate id for this owner
func (k OwnerKey) CartID() string {
	if k.UserID != "" {
		return "cart-user-" + k.UserID
	}
	return "cart-session-" + k.SessionID
}

// Variant is a chosen product variant (e.g. glaze colour, size)
type Variant struct {
	Name    string            `json:"name"`
	Options map[string]string `json:"options,omitempty"`
}

// Key returns a deterministic signature used to decide whether two lines
// are the same product+variant combination.
func (v *Variant) Key() string {
	if v == nil {
		return ""
	}
	parts := make([]string, 0, len(v.Options))
	for name, choice := range v.Options {
		parts = append(parts, name+"="+choice)
	}
	sort.Strings(parts)
	return v.Name + "|" + strings.Join(parts, ",")
}
