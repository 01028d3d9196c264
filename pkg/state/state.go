// Package state provides persistent run-state management for bandproj.
//
// One JSON state file per configuration is kept under .bandproj/state/ in
// the project root. It records the parameters of the last run together with
// the computed window metadata, so a later run can detect parameter drift
// (see audit.go) and downstream tools can pick up the results.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bandproj/bandproj/pkg/logger"
)

// GroupResult records the computed window metadata of one projector group.
type GroupResult struct {
	Name   string  `json:"name"`
	IBMin  int     `json:"ibMin"`
	IBMax  int     `json:"ibMax"`
	NBMax  int     `json:"nbMax"`
	Nelect float64 `json:"nelect"`
}

// RunState is the persistent record of one pipeline run.
type RunState struct {
	RunID      string                 `json:"runId"`
	ConfigPath string                 `json:"configPath"`
	Timestamp  time.Time              `json:"timestamp"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Groups     []GroupResult          `json:"groups,omitempty"`
}

// Store reads and writes run-state files.
type Store struct {
	stateDir string
	logger   logger.Logger
	mu       sync.RWMutex
	cache    map[string]*RunState
}

// NewStore creates a store rooted at projectRoot.
func NewStore(projectRoot string, log logger.Logger) *Store {
	stateDir := filepath.Join(projectRoot, ".bandproj", "state")

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		log.Error("failed to create state directory", logger.WithField("error", err))
	}

	return &Store{
		stateDir: stateDir,
		logger:   log,
		cache:    make(map[string]*RunState),
	}
}

// NewRunState creates a run record with a fresh run ID.
func NewRunState(configPath string, params map[string]interface{}) *RunState {
	return &RunState{
		RunID:      uuid.NewString(),
		ConfigPath: configPath,
		Timestamp:  time.Now(),
		Parameters: params,
	}
}

// Save persists a run state under the given name.
func (s *Store) Save(name string, st *RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	path := s.statePath(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	s.cache[name] = st
	s.logger.Debug("run state saved",
		logger.WithField("name", name),
		logger.WithField("runId", st.RunID))
	return nil
}

// Load reads the run state stored under the given name.
func (s *Store) Load(name string) (*RunState, error) {
	s.mu.RLock()
	if st, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return st, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.statePath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	s.mu.Lock()
	s.cache[name] = &st
	s.mu.Unlock()
	return &st, nil
}

// Exists reports whether a state file is present for the given name.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.statePath(name))
	return err == nil
}

// Remove deletes the state file for the given name.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, name)
	if err := os.Remove(s.statePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// StateName derives the state-file key from a configuration path.
func StateName(configPath string) string {
	base := filepath.Base(configPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Store) statePath(name string) string {
	return filepath.Join(s.stateDir, name+".state.json")
}
