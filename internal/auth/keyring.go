package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "hydrai"
	KeyringUser    = "token"
)

// KeyringStore keeps the token in the operating system keyring
type KeyringStore struct {
	service string
	user    string
}

func NewKeyringStore(service, user string) *KeyringStore {
	return &KeyringStore{service: service, user: user}
}

func (s *KeyringStore) Get() (string, error) {
	token, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Op: "get", Backend: "keyring", Err: err}
	}
	return token, nil
}

func (s *KeyringStore) Set(token string) error {
	if err := keyring.Set(s.service, s.user, token); err != nil {
		return &StorageError{Op: "set", Backend: "keyring", Err: err}
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	err := keyring.Delete(s.service, s.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &StorageError{Op: "clear", Backend: "keyring", Err: err}
	}
	return nil
}
