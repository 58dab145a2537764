package account

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/shared/id"
)

// Account is one API client and the browser instance bound to it.
type Account struct {
	ID         id.AccountID `yaml:"id" json:"id"`
	Name       string       `yaml:"name" json:"name"`
	APIKey     id.APIKey    `yaml:"api_key" json:"-"`
	InstanceID string       `yaml:"instance_id" json:"instance_id"`
	CreatedAt  time.Time    `yaml:"created_at" json:"created_at"`
}

type accountsFile struct {
	Accounts []Account `yaml:"accounts"`
}

// Store indexes accounts by API key and by account id.
type Store struct {
	mu     sync.RWMutex
	byKey  map[id.APIKey]*Account
	byID   map[id.AccountID]*Account
	logger *logging.Logger
}

// NewStore builds an empty store.
func NewStore(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Store{
		byKey:  make(map[id.APIKey]*Account),
		byID:   make(map[id.AccountID]*Account),
		logger: logger,
	}
}

// LoadStore reads the accounts file. A missing file yields an empty store so
// a fresh deployment can boot before any account is provisioned.
func LoadStore(path string, logger *logging.Logger) (*Store, error) {
	s := NewStore(logger)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Warn("Accounts file not found, starting with no accounts", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse accounts file %s: %w", path, err)
	}
	for i := range file.Accounts {
		if err := s.Add(file.Accounts[i]); err != nil {
			return nil, fmt.Errorf("accounts file %s: %w", path, err)
		}
	}
	s.logger.Info("Accounts loaded", zap.String("path", path), zap.Int("count", len(file.Accounts)))
	return s, nil
}

// Add registers an account, minting an id and key for any left blank.
func (s *Store) Add(a Account) error {
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if a.InstanceID == "" {
		return fmt.Errorf("account %q: instance_id is required", a.Name)
	}
	if a.ID == "" {
		a.ID = id.NewAccountID()
	}
	if a.APIKey == "" {
		a.APIKey = id.NewAPIKey()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[a.APIKey]; ok {
		return fmt.Errorf("account %q: duplicate api key", a.Name)
	}
	if _, ok := s.byID[a.ID]; ok {
		return fmt.Errorf("account %q: duplicate id %s", a.Name, a.ID)
	}
	stored := a
	s.byKey[stored.APIKey] = &stored
	s.byID[stored.ID] = &stored
	return nil
}

// Authenticate resolves an API key to its account.
func (s *Store) Authenticate(key string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byKey[id.APIKey(key)]
	if !ok {
		return nil, false
	}
	copied := *a
	return &copied, true
}

// Get resolves an account id.
func (s *Store) Get(accountID id.AccountID) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[accountID]
	if !ok {
		return nil, false
	}
	copied := *a
	return &copied, true
}

// Count returns the number of registered accounts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}
