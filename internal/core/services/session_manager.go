package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hisabat/pos_backend/internal/apperrors"
	portssvc "github.com/hisabat/pos_backend/internal/core/ports/services"
)

// SessionManager owns the live statement sessions, one per open UI surface,
// keyed by an opaque session id handed back to the client.
type SessionManager struct {
	ledgerSvc portssvc.LedgerSvcFacade
	cfg       StatementSessionConfig

	mu       sync.RWMutex
	sessions map[string]*StatementSession
}

// NewSessionManager creates an empty manager. All sessions it creates share
// the same ledger engine and configuration.
func NewSessionManager(ledgerSvc portssvc.LedgerSvcFacade, cfg StatementSessionConfig) *SessionManager {
	return &SessionManager{
		ledgerSvc: ledgerSvc,
		cfg:       cfg,
		sessions:  make(map[string]*StatementSession),
	}
}

// CreateSession creates and initializes a new statement session and returns
// its id. The session stays registered until CloseSession or CloseAll.
func (m *SessionManager) CreateSession(ctx context.Context) (string, *StatementSession, error) {
	session := NewStatementSession(m.ledgerSvc, m.cfg)
	if err := session.Initialize(ctx); err != nil {
		session.Close()
		return "", nil, err
	}

	sessionID := uuid.NewString()
	m.mu.Lock()
	m.sessions[sessionID] = session
	m.mu.Unlock()

	return sessionID, session, nil
}

// GetSession returns the session for the id or apperrors.ErrNotFound.
func (m *SessionManager) GetSession(sessionID string) (*StatementSession, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return session, nil
}

// CloseSession tears the session down and removes it from the registry.
// Closing an unknown id is a no-op.
func (m *SessionManager) CloseSession(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll tears down every registered session. Called on server shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*StatementSession)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// Count reports the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
