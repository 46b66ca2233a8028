package identity

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two persistence scopes a shopper can occupy.
type Kind string

const (
	KindAnonymous     Kind = "anonymous"
	KindAuthenticated Kind = "authenticated"
)

// Identity names the owner of cart and wishlist state. Anonymous identities
// are scoped to a device, authenticated identities to a user account. The
// subject is the storage key for whichever backend the identity selects.
type Identity struct {
	kind    Kind
	subject string
}

// Anonymous returns a device-scoped identity.
func Anonymous(deviceID string) Identity {
	return Identity{kind: KindAnonymous, subject: strings.TrimSpace(deviceID)}
}

// Authenticated returns a user-scoped identity.
func Authenticated(userID string) Identity {
	return Identity{kind: KindAuthenticated, subject: strings.TrimSpace(userID)}
}

func (i Identity) Kind() Kind { return i.kind }

// Subject returns the storage key: the device ID for anonymous identities,
// the user ID for authenticated ones.
func (i Identity) Subject() string { return i.subject }

func (i Identity) IsAnonymous() bool { return i.kind == KindAnonymous }

// IsZero reports whether the identity has not been populated.
func (i Identity) IsZero() bool { return i.kind == "" && i.subject == "" }

// Validate checks that the identity carries a kind and a subject.
func (i Identity) Validate() error {
	if i.kind != KindAnonymous && i.kind != KindAuthenticated {
		return fmt.Errorf("invalid identity kind %q", i.kind)
	}
	if i.subject == "" {
		return fmt.Errorf("identity subject is required")
	}
	return nil
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.kind, i.subject)
}
