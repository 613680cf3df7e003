// Package tasks mirrors the remote task list of the logged-in user.
// Local state only changes after the server confirmed an operation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/cli/client"
)

// ErrEmptyText is returned when adding a task without text
var ErrEmptyText = errors.New("task text cannot be empty")

// API is the part of the HTTP client the store needs
type API interface {
	ListTasks(ctx context.Context, opts client.ListOptions) (*client.TaskList, error)
	CreateTask(ctx context.Context, text string) (*client.Task, error)
	DeleteTask(ctx context.Context, id string) error
	SetTaskDone(ctx context.Context, id string, done bool) error
}

// Task is a task as held by the store
type Task struct {
	ID   string `json:"id"`
	Text string `json:"task"`
	Done bool   `json:"done"`
}

// State is a snapshot of the store
type State struct {
	Tasks   []Task
	Total   int
	Loaded  bool
	Loading bool
}

// Store holds the ordered task list
type Store struct {
	api API
	log zerolog.Logger

	mu      sync.RWMutex
	tasks   []Task
	loaded  bool
	loading bool
	// gen changes on Reset so late responses from before it are dropped
	gen uint64
}

// NewStore creates an empty, not yet loaded store
func NewStore(api API, log zerolog.Logger) *Store {
	return &Store{
		api: api,
		log: log.With().Str("component", "tasks").Logger(),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return State{
		Tasks:   out,
		Total:   len(s.tasks),
		Loaded:  s.loaded,
		Loading: s.loading,
	}
}

// Find returns the task with the given ID
func (s *Store) Find(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

// index must be called with s.mu held
func (s *Store) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Load fetches the task list once. Later calls are no-ops until Reset,
// including after a failed load.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.loaded = true
	s.loading = true
	gen := s.gen
	s.mu.Unlock()

	list, err := s.api.ListTasks(ctx, client.ListOptions{})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.loading = false

	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load tasks")
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	if len(list.Tasks) == 0 {
		s.log.Debug().Msg("No tasks found in the payload")
	}
	for _, t := range list.Tasks {
		s.tasks = append(s.tasks, Task{ID: t.ID, Text: t.Text, Done: t.Done})
	}
	return nil
}

// Add creates a task and appends it once the server returned it
func (s *Store) Add(ctx context.Context, text string) (Task, error) {
	if strings.TrimSpace(text) == "" {
		return Task{}, ErrEmptyText
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	created, err := s.api.CreateTask(ctx, text)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create task")
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	task := Task{ID: created.ID, Text: created.Text, Done: created.Done}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.tasks = append(s.tasks, task)
	}
	return task, nil
}

// Delete removes a task once the server accepted the deletion
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Msg("Failed to delete task")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	return nil
}

// SetDone marks a task done or not done once the server accepted it
func (s *Store) SetDone(ctx context.Context, id string, done bool) error {
	if err := s.api.SetTaskDone(ctx, id, done); err != nil {
		s.log.Error().Err(err).Str("task_id", id).Bool("done", done).Msg("Failed to update task")
		return fmt.Errorf("failed to update task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.tasks[i].Done = done
	}
	return nil
}

// Reset wipes the store so nothing of the previous user stays visible
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.loaded = false
	s.loading = false
	s.gen++
}
