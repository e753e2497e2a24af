package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Connection represents a user-configured collection on a DevOps platform
// deployment, acting as either the source or the target of a migration.
type Connection struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`   // "source" or "target"
	Scheme     string `json:"scheme"` // "http" or "https"
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Collection string `json:"collection"`
	Project    string `json:"project"`
	Token      string `json:"token,omitempty"` // personal access token
	CACert     string `json:"ca_cert,omitempty"`
	Insecure   bool   `json:"insecure"` // skip TLS verification

	PingStatus string `json:"ping_status,omitempty"`
	PingError  string `json:"ping_error,omitempty"`
	AuthStatus string `json:"auth_status,omitempty"`
	AuthError  string `json:"auth_error,omitempty"`
}

// BaseURL returns the collection-level base URL for this connection.
func (c *Connection) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d/%s", c.Scheme, c.Host, c.Port, strings.Trim(c.Collection, "/"))
}

// ConnectionStore is an in-memory thread-safe store for connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]*Connection)}
}

// Create adds a new connection, assigning it a UUID.
func (s *ConnectionStore) Create(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New().String()
	s.conns[c.ID] = c
}

// Get returns a connection by ID, or nil if not found.
func (s *ConnectionStore) Get(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// List returns all connections.
func (s *ConnectionStore) List() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		result = append(result, c)
	}
	return result
}

// ByRole returns the first connection with the given role, or nil.
func (s *ConnectionStore) ByRole(role string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		if c.Role == role {
			return c
		}
	}
	return nil
}

// Update replaces an existing connection's settings.
func (s *ConnectionStore) Update(c *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c.ID]; !ok {
		return false
	}
	s.conns[c.ID] = c
	return true
}

// Delete removes a connection by ID.
func (s *ConnectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	return true
}

// SetHealth records the startup ping/auth check results for a connection.
func (s *ConnectionStore) SetHealth(id, pingStatus, pingError, authStatus, authError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	if !ok {
		return
	}
	c.PingStatus = pingStatus
	c.PingError = pingError
	c.AuthStatus = authStatus
	c.AuthError = authError
}
