package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
)

var (
	ErrSceneNotFound = service.ErrSceneNotFound
	ErrInvalidScene  = errors.New("invalid scene")
)

// DefaultSceneName is loaded as the default scene when present
const DefaultSceneName = "default"

// Manager handles scene catalog loading and caching
type Manager struct {
	sceneDir     string
	defaultID    string
	defaultScene *scene.Document
	scenes       map[string]*scene.Document
	mu           sync.RWMutex
}

// NewManager creates a new scene catalog over sceneDir
func NewManager(sceneDir string) (*Manager, error) {
	// Ensure scene directory exists
	if _, err := os.Stat(sceneDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("scene directory does not exist: %s", sceneDir)
	}

	m := &Manager{
		sceneDir:  sceneDir,
		defaultID: DefaultSceneName,
		scenes:    make(map[string]*scene.Document),
	}

	if err := m.loadDefaultScene(); err != nil {
		return nil, fmt.Errorf("failed to load default scene: %w", err)
	}

	return m, nil
}

// Dir returns the catalog directory
func (m *Manager) Dir() string {
	return m.sceneDir
}

// LoadScene loads a scene by ID, trying each supported extension in turn
func (m *Manager) LoadScene(id string) (*scene.Document, error) {
	id = trimSceneExt(id)
	if !validID(id) {
		return nil, fmt.Errorf("%w: invalid scene id %q", ErrSceneNotFound, id)
	}

	m.mu.RLock()
	// Check cache first
	if doc, exists := m.scenes[id]; exists {
		m.mu.RUnlock()
		return doc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if doc, exists := m.scenes[id]; exists {
		return doc, nil
	}

	path, ok := m.findFile(id)
	if !ok {
		return nil, ErrSceneNotFound
	}

	doc, err := scene.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}

	s := doc.Scene()
	if err := engine.ValidateScene(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}

	if doc.Name == "" {
		doc.Name = id
	}

	m.scenes[id] = doc
	return doc, nil
}

// ListScenes returns information about every loadable scene. Files that fail
// to parse or validate are skipped.
func (m *Manager) ListScenes() ([]*service.SceneInfo, error) {
	entries, err := os.ReadDir(m.sceneDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene directory: %w", err)
	}

	scenes := []*service.SceneInfo{}
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !supported(entry.Name()) {
			continue
		}

		id := trimSceneExt(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		doc, err := m.LoadScene(id)
		if err != nil {
			continue
		}

		// id may have several files; report the one LoadScene reads
		filename := entry.Name()
		if path, ok := m.findFile(id); ok {
			filename = filepath.Base(path)
		}
		format, _ := scene.FormatForPath(filename)

		s := doc.Scene()
		scenes = append(scenes, &service.SceneInfo{
			Filename:    filename,
			SceneID:     id,
			Name:        doc.Name,
			Description: doc.Description,
			Format:      string(format),
			Width:       s.Size.W,
			Height:      s.Size.H,
			Obstacles:   len(s.Obstacles),
		})
	}

	return scenes, nil
}

// GetDefault returns the default scene
func (m *Manager) GetDefault() *scene.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScene
}

// SetDefault makes id the default scene. The choice holds across cache
// refreshes and hot reloads.
func (m *Manager) SetDefault(id string) error {
	id = trimSceneExt(id)
	doc, err := m.LoadScene(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultScene = doc
	return nil
}

// SaveScene writes a scene document to <id>.yaml, or back to <id>.json when
// that file already exists. SVG drawings are never overwritten.
func (m *Manager) SaveScene(id string, doc *scene.Document) error {
	id = trimSceneExt(id)
	if !validID(id) {
		return fmt.Errorf("%w: invalid scene id %q", ErrInvalidScene, id)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	s := doc.Scene()
	if err := engine.ValidateScene(&s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}

	path := filepath.Join(m.sceneDir, id+".yaml")
	format := scene.FormatYAML
	if existing, ok := m.findFile(id); ok {
		f, _ := scene.FormatForPath(existing)
		if f == scene.FormatSVG {
			return fmt.Errorf("%w: scene %s is an svg drawing; save under another id", ErrInvalidScene, id)
		}
		path, format = existing, f
	}

	data, err := doc.Encode(format)
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.scenes[id] = doc
	if id == m.defaultID {
		m.defaultScene = doc
	}
	m.mu.Unlock()

	return nil
}

// Invalidate drops one cached scene so the next load rereads it
func (m *Manager) Invalidate(id string) {
	id = trimSceneExt(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scenes, id)
}

// RefreshCache reloads all cached scenes from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.scenes = make(map[string]*scene.Document)
	m.mu.Unlock()

	return m.loadDefaultScene()
}

// loadDefaultScene picks the default ID (default.* unless SetDefault chose
// another), then the first listed scene, then the built-in scene.
func (m *Manager) loadDefaultScene() error {
	m.mu.RLock()
	id := m.defaultID
	m.mu.RUnlock()

	doc, err := m.LoadScene(id)
	if err != nil {
		scenes, listErr := m.ListScenes()
		if listErr != nil || len(scenes) == 0 {
			m.setDefault(builtinDefault())
			return nil
		}

		doc, err = m.LoadScene(scenes[0].SceneID)
		if err != nil {
			m.setDefault(builtinDefault())
			return nil
		}
	}

	m.setDefault(doc)
	return nil
}

func (m *Manager) setDefault(doc *scene.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScene = doc
}

// findFile returns the first existing file for id in extension order
func (m *Manager) findFile(id string) (string, bool) {
	for _, ext := range scene.Extensions {
		path := filepath.Join(m.sceneDir, id+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func builtinDefault() *scene.Document {
	return scene.NewDocument(DefaultSceneName, "Built-in 20x12 scene with two walls", *engine.DefaultScene())
}

func supported(name string) bool {
	_, err := scene.FormatForPath(name)
	return err == nil
}

func trimSceneExt(name string) string {
	if supported(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
