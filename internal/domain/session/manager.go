package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/shared/id"
)

// ErrNoSession means the account has no cached session to execute with.
var ErrNoSession = errors.New("no cached session for account")

// Session is one account's captured browser session. ID identifies the
// snapshot, not the account: every Put mints a fresh one, so vault dumps
// and log lines can tell refreshes of the same account apart.
type Session struct {
	ID        id.SessionID      `json:"id"`
	AccountID string            `json:"account_id"`
	Cookies   map[string]string `json:"cookies"`
	CSRFToken string            `json:"csrf_token"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CookieHeader renders the session as a Cookie header value, sorted for
// stable output.
func (s *Session) CookieHeader() string {
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+s.Cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// csrfFromCookies derives the voyager csrf token from JSESSIONID, which the
// browser stores quoted.
func csrfFromCookies(cookies map[string]string) string {
	return strings.Trim(cookies["JSESSIONID"], `"`)
}

// Dispatcher is the proxied-call capability the manager needs for refresh.
type Dispatcher interface {
	Execute(ctx context.Context, instanceID string, kind proxy.Kind, payload any, timeout time.Duration) (*proxy.Response, error)
}

// Metrics is the observability hook for session events.
type Metrics interface {
	SessionsStoredInc()
	SessionsRefreshedInc()
}

// Manager holds cached sessions keyed by account.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	vault    *Vault
	logger   *logging.Logger
	metrics  Metrics
}

// NewManager creates a session manager. vault may be nil for memory-only
// operation; existing vault contents are loaded eagerly.
func NewManager(vault *Vault, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		vault:    vault,
		logger:   logger,
	}
	if vault != nil {
		loaded, err := vault.Load()
		if err != nil {
			return nil, fmt.Errorf("load session vault: %w", err)
		}
		if loaded != nil {
			m.sessions = loaded
		}
		logger.Info("Session vault loaded", zap.Int("sessions", len(m.sessions)))
	}
	return m, nil
}

// WithMetrics attaches an observability hook.
func (m *Manager) WithMetrics(metrics Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Get returns the cached session for an account.
func (m *Manager) Get(accountID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[accountID]
	return s, ok
}

// Put stores cookie state for an account, deriving the csrf token, and
// persists the vault when one is configured.
func (m *Manager) Put(accountID string, cookies map[string]string) (*Session, error) {
	if len(cookies) == 0 {
		return nil, fmt.Errorf("empty cookie state for account %s", accountID)
	}

	s := &Session{
		ID:        id.NewSessionID(),
		AccountID: accountID,
		Cookies:   cookies,
		CSRFToken: csrfFromCookies(cookies),
		UpdatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.sessions[accountID] = s
	err := m.persistLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.SessionsStoredInc()
	}
	m.logger.Info("Session stored",
		zap.String("session_id", s.ID.String()),
		zap.String("account_id", accountID),
		zap.Int("cookies", len(cookies)),
	)
	return s, nil
}

// Count returns the number of cached sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// refreshPayload is the body of a session_state response.
type refreshPayload struct {
	Cookies map[string]string `json:"cookies"`
}

// Refresh asks a connected instance to re-read its cookie jar and stores
// the result for the account. Proxy errors propagate unchanged so the API
// layer can map them.
func (m *Manager) Refresh(ctx context.Context, d Dispatcher, accountID, instanceID string, timeout time.Duration) (*Session, error) {
	resp, err := d.Execute(ctx, instanceID, proxy.KindSessionRefresh, nil, timeout)
	if err != nil {
		return nil, err
	}

	var payload refreshPayload
	if err := sonic.UnmarshalString(resp.Body, &payload); err != nil {
		return nil, &proxy.ProtocolError{Reason: "undecodable session state", Err: err}
	}
	if len(payload.Cookies) == 0 {
		return nil, &proxy.ProtocolError{Reason: "session state without cookies"}
	}

	s, err := m.Put(accountID, payload.Cookies)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.SessionsRefreshedInc()
	}
	return s, nil
}

func (m *Manager) persistLocked() error {
	if m.vault == nil {
		return nil
	}
	return m.vault.Save(m.sessions)
}
