package run

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
)

var (
	ErrRunNotFound      = service.ErrRunNotFound
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRunID     = errors.New("invalid run ID")
)

// maxIDAttempts bounds retries when a random ID collides
const maxIDAttempts = 16

// Manager handles solve run lifecycle
type Manager struct {
	runs        map[string]*service.Run
	persistence RunPersistence
	mu          sync.RWMutex
}

// NewManager creates a new in-memory run manager
func NewManager() *Manager {
	return &Manager{
		runs: make(map[string]*service.Run),
	}
}

// NewManagerWithPersistence creates a new run manager that writes through to
// persistence
func NewManagerWithPersistence(persistence RunPersistence) *Manager {
	return &Manager{
		runs:        make(map[string]*service.Run),
		persistence: persistence,
	}
}

// Create stores a solved grid as a new run. An empty id gets a random
// 4-character one.
func (m *Manager) Create(id, sceneID string, solved *engine.SolvedGrid) (*service.Run, error) {
	if solved == nil {
		return nil, fmt.Errorf("solved grid cannot be nil")
	}
	if strings.ContainsAny(id, `/\.`) {
		return nil, ErrInvalidRunID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		for i := 0; i < maxIDAttempts; i++ {
			id = generateRunID()
			if !m.runExists(id) {
				break
			}
		}
	}

	// Check if run already exists (case-insensitive)
	if m.runExists(id) {
		return nil, ErrRunAlreadyExists
	}

	now := time.Now()
	run := &service.Run{
		ID:             id,
		SceneID:        sceneID,
		Solution:       solved,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.runs[strings.ToLower(id)] = run

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(run); err != nil {
			// Log error but don't fail the creation
			log.Printf("Warning: Failed to persist run %s: %v", id, err)
		}
	}

	return snapshot(run), nil
}

// Get retrieves a run by ID (case-insensitive), falling back to persistence
func (m *Manager) Get(id string) (*service.Run, error) {
	m.mu.RLock()
	run, exists := m.runs[strings.ToLower(id)]
	if exists {
		run = snapshot(run)
	}
	m.mu.RUnlock()

	if exists {
		return run, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		run, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted run: %w", err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if cached, ok := m.runs[strings.ToLower(id)]; ok {
			run = cached
		} else {
			m.runs[strings.ToLower(id)] = run
		}

		return snapshot(run), nil
	}

	return nil, ErrRunNotFound
}

// List returns all in-memory runs, newest first
func (m *Manager) List() []*service.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, snapshot(run))
	}
	sortNewestFirst(result)
	return result
}

// Delete removes a run from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	_, inMemory := m.runs[lowerID]
	delete(m.runs, lowerID)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted run: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrRunNotFound
	}
	return nil
}

// DeleteFromMemory removes a run from memory only
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.runs[lowerID]; !exists {
		return ErrRunNotFound
	}
	delete(m.runs, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a run and returns a
// snapshot taken under the lock
func (m *Manager) UpdateLastAccessed(id string) (*service.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, exists := m.runs[strings.ToLower(id)]
	if !exists {
		return nil, ErrRunNotFound
	}
	run.LastAccessedAt = time.Now()

	if m.persistence != nil {
		if err := m.persistence.Save(run); err != nil {
			log.Printf("Warning: Failed to persist run %s after access update: %v", id, err)
		}
	}
	return snapshot(run), nil
}

// snapshot copies a stored run so callers never share the record the
// manager mutates. The solution is immutable and stays shared.
func snapshot(run *service.Run) *service.Run {
	cp := *run
	return &cp
}

// CleanupExpiredRuns drops runs not accessed within maxAge from memory.
// Persisted copies stay on disk and load again on demand.
func (m *Manager) CleanupExpiredRuns(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, run := range m.runs {
		if run.LastAccessedAt.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of in-memory runs
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersistedRuns loads all persisted runs into memory
func (m *Manager) LoadPersistedRuns() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	runIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted runs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range runIDs {
		if _, exists := m.runs[strings.ToLower(id)]; exists {
			continue
		}

		run, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted run %s: %v", id, err)
			continue
		}

		m.runs[strings.ToLower(id)] = run
		loadedCount++
	}

	if loadedCount > 0 {
		log.Printf("Loaded %d persisted runs from storage", loadedCount)
	}

	return nil
}

// SaveAllRuns saves all in-memory runs to persistence
func (m *Manager) SaveAllRuns() error {
	if m.persistence == nil {
		return nil
	}

	runs := m.List()

	errorCount := 0
	for _, run := range runs {
		if err := m.persistence.Save(run); err != nil {
			log.Printf("Warning: Failed to save run %s: %v", run.ID, err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d runs", errorCount)
	}
	return nil
}

// generateRunID generates a random 4-character hex ID
func generateRunID() string {
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// runExists checks if a run exists (case-insensitive). Callers hold m.mu.
func (m *Manager) runExists(id string) bool {
	_, exists := m.runs[strings.ToLower(id)]
	return exists
}
