package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	pairingKeyAddress = "address"
	pairingKeyName    = "name"
	pairingKeyService = "service_uuid"
	pairingKeyChar    = "characteristic_uuid"
	pairingKeyPaired  = "paired_at"
)

// PairingStore keeps the paired sensor address in its own small YAML file.
type PairingStore struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// OpenPairingStore loads the pairing file at path. A missing file means
// nothing is paired yet.
func OpenPairingStore(path string) (*PairingStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read pairing file %s: %w", path, err)
	}
	return &PairingStore{path: path, v: v}, nil
}

// PairedAddress returns the stored address, if any.
func (s *PairingStore) PairedAddress() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := strings.TrimSpace(s.v.GetString(pairingKeyAddress))
	return addr, addr != ""
}

// PairedAt returns when the current pairing was saved.
func (s *PairingStore) PairedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetTime(pairingKeyPaired)
}

// SetPairedAddress stores address and writes the file.
func (s *PairingStore) SetPairedAddress(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address = strings.ToUpper(strings.TrimSpace(address))
	s.v.Set(pairingKeyAddress, address)
	s.v.Set(pairingKeyName, ServiceName)
	s.v.Set(pairingKeyService, ServiceUUID)
	s.v.Set(pairingKeyChar, CharacteristicUUID)
	s.v.Set(pairingKeyPaired, time.Now().UTC().Format(time.RFC3339))

	return s.write()
}

// Clear forgets the paired device.
func (s *PairingStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(pairingKeyAddress, "")
	s.v.Set(pairingKeyPaired, "")
	return s.write()
}

// Path returns the backing file.
func (s *PairingStore) Path() string { return s.path }

func (s *PairingStore) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.path), err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write pairing file: %w", err)
	}
	return nil
}
