package core

import (
	"errors"
	"sync"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler is a function that handles a command with raw frame data.
// The handler decodes its own arguments, advancing data.
type CommandHandler func(data *[]byte) error

// Command describes one protocol message. Responses have a nil Handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "channel=%c clock=%u"
	Handler CommandHandler
}

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	order    []uint16
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
	}
}

// GetGlobalRegistry returns the registry used by the firmware
func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}

// Register adds a command under a fixed ID. Re-registering an ID replaces it.
func (r *CommandRegistry) Register(id uint16, name, format string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[id]; !exists {
		r.order = append(r.order, id)
	}
	r.commands[id] = &Command{
		ID:      id,
		Name:    name,
		Format:  format,
		Handler: handler,
	}
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}
	return cmd.Handler(data)
}

// Commands returns the registered commands in registration order
func (r *CommandRegistry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.order))
	for _, id := range r.order {
		cmds = append(cmds, r.commands[id])
	}
	return cmds
}
