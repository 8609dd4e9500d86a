// Package credential keeps the control API token in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/google/uuid"
)

const (
	serviceName = "countdown"
	apiTokenKey = "api-token"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/countdown/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("countdown-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// APIToken returns the bearer token for the local control API, creating and
// storing a new one on first use.
func APIToken() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(apiTokenKey)
	if err == nil && len(item.Data) > 0 {
		return string(item.Data), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", apiTokenKey, err)
	}

	return storeNewToken(ring)
}

// RotateAPIToken replaces the stored token and returns the new one.
func RotateAPIToken() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}
	return storeNewToken(ring)
}

// DeleteAPIToken removes the stored token. A missing token is not an error.
func DeleteAPIToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(apiTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", apiTokenKey, err)
	}

	return nil
}

func storeNewToken(ring keyring.Keyring) (string, error) {
	token := uuid.New().String()
	err := ring.Set(keyring.Item{
		Key:   apiTokenKey,
		Label: "countdown control API token",
		Data:  []byte(token),
	})
	if err != nil {
		return "", fmt.Errorf("setting credential %q: %w", apiTokenKey, err)
	}
	return token, nil
}
