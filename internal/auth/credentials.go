package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// credentialsDir is the directory holding the credentials file, under home or the project root
	credentialsDir = ".hydrai"
	// credentialsFile is the JSON file name for the stored token
	credentialsFile = "credentials.json"
)

// credentials is the on-disk layout; the token lives under a fixed key
type credentials struct {
	Token string `json:"token"`
}

// FileStore keeps the token in a JSON file readable only by the current user
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore persisting to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the credentials file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", s.fail("get", err)
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", s.fail("get", fmt.Errorf("failed to parse credentials from %s: %w", s.path, err))
	}

	return creds.Token, nil
}

func (s *FileStore) Set(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return s.fail("set", fmt.Errorf("failed to create directory %s: %w", dir, err))
	}

	data, err := json.MarshalIndent(credentials{Token: token}, "", "  ")
	if err != nil {
		return s.fail("set", fmt.Errorf("failed to marshal credentials: %w", err))
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return s.fail("set", fmt.Errorf("failed to write credentials to %s: %w", s.path, err))
	}

	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return s.fail("clear", fmt.Errorf("failed to remove %s: %w", s.path, err))
	}
	return nil
}

func (s *FileStore) fail(op string, err error) error {
	return &StorageError{Op: op, Backend: "file", Err: err}
}

func storePath(store StoreKind) (string, error) {
	switch store {
	case StoreHome:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		return filepath.Join(homeDir, credentialsDir, credentialsFile), nil
	case StoreProject:
		return filepath.Join(credentialsDir, credentialsFile), nil
	default:
		return "", fmt.Errorf("store %s is not file based", store)
	}
}
