package ssostate

import (
	"errors"
	"sync"
	"time"
)

// stateTTL bounds how long an abandoned login attempt lingers.
const stateTTL = 10 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*FlowState
}

// NewInMemoryRepo creates a new in-memory SSO flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*FlowState),
	}
}

// Upsert stores or updates a flow state
func (r *InMemoryRepo) Upsert(state string, flowState *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flowState == nil {
		return errors.New("flowState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	r.states[state] = &FlowState{
		CodeVerifier: flowState.CodeVerifier,
		Nonce:        flowState.Nonce,
		ReturnURL:    flowState.ReturnURL,
		CreatedAt:    flowState.CreatedAt,
	}
	return nil
}

// Get retrieves a flow state by state parameter
func (r *InMemoryRepo) Get(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flowState, exists := r.states[state]
	if !exists {
		return nil, nil
	}
	if time.Since(flowState.CreatedAt) > stateTTL {
		return nil, nil
	}

	return &FlowState{
		CodeVerifier: flowState.CodeVerifier,
		Nonce:        flowState.Nonce,
		ReturnURL:    flowState.ReturnURL,
		CreatedAt:    flowState.CreatedAt,
	}, nil
}

// Delete removes a flow state after use
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}

var _ Repo = (*InMemoryRepo)(nil)
