package auth

import "fmt"

// Store is the single-slot holder for the backend access token
type Store interface {
	// Get returns the current token, or "" when none has been stored yet.
	Get() (string, error)
	// Set replaces any previously stored token.
	Set(token string) error
	// Clear forgets the stored token. Clearing an empty store is not an error.
	Clear() error
}

// StoreKind represents where the token is persisted
type StoreKind string

const (
	StoreHome    StoreKind = "home"    // ~/.hydrai/credentials.json
	StoreProject StoreKind = "project" // .hydrai/credentials.json
	StoreKeyring StoreKind = "keyring" // system keyring
)

// ValidateStore checks if the given string is a valid StoreKind
func ValidateStore(store string) (StoreKind, error) {
	switch StoreKind(store) {
	case "":
		return StoreHome, nil
	case StoreHome, StoreProject, StoreKeyring:
		return StoreKind(store), nil
	default:
		return "", fmt.Errorf("invalid store %q: must be 'home', 'project', or 'keyring'", store)
	}
}

// Open returns the Store backing the given kind
func Open(kind StoreKind) (Store, error) {
	switch kind {
	case StoreHome, StoreProject:
		path, err := storePath(kind)
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	case StoreKeyring:
		return NewKeyringStore(KeyringService, KeyringUser), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", kind)
	}
}

// StorageError reports a failure of the underlying persistence layer
type StorageError struct {
	Op      string // get, set or clear
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential store %s (%s): %v", e.Op, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MaskToken shortens a token for display, keeping only its edges
func MaskToken(token string) string {
	if len(token) > 8 {
		return token[:4] + "..." + token[len(token)-4:]
	}
	if token == "" {
		return ""
	}
	return "****"
}
