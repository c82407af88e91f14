// Package tasks holds named callbacks that test code can invoke by name,
// the way a test script calls out to the host process.
package tasks

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrUnknownTask is returned by Run for names never registered.
var ErrUnknownTask = errors.New("unknown task")

// LogTask is the name the log hook is registered under.
const LogTask = "log"

type Func func(arg string) error

type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Func)}
}

// Register adds or replaces the task called name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = fn
}

func (r *Registry) Run(name, arg string) error {
	r.mu.RLock()
	fn, ok := r.tasks[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return fn(arg)
}

// Log runs the log task. Errors are swallowed: a missing log hook must not
// fail a test.
func (r *Registry) Log(message string) {
	_ = r.Run(LogTask, message)
}

// NewLogTask writes each message to the console and never fails.
func NewLogTask(logger *zap.Logger) Func {
	return func(message string) error {
		logger.Info(message)
		return nil
	}
}

// Default returns a registry with the log task wired to logger.
func Default(logger *zap.Logger) *Registry {
	r := NewRegistry()
	r.Register(LogTask, NewLogTask(logger))
	return r
}
