package core

import "errors"

var ErrUnknownCommand = errors.New("spi: unknown command ID")

// CommandHandler is a function that handles a command with raw frame data
// The handler is responsible for decoding its own arguments from the data pointer
type CommandHandler func(data *[]byte) error

// Command describes one message of the monitor link
type Command struct {
	ID      uint16
	Name    string
	Format  string // Argument format (e.g., "addr=%u value=%c")
	Handler CommandHandler
}

// CommandRegistry maps command IDs to handlers.
// IDs are assigned in registration order starting at 0.
type CommandRegistry struct {
	commands []Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

// Register adds a command to the registry and returns its ID.
// A nil handler declares a response (device to host).
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	for _, cmd := range r.commands {
		if cmd.Name == name {
			return cmd.ID
		}
	}
	id := uint16(len(r.commands))
	r.commands = append(r.commands, Command{ID: id, Name: name, Format: format, Handler: handler})
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return &r.commands[id], true
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
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

// Dictionary lists every command as "name format", one per line
func (r *CommandRegistry) Dictionary() string {
	dict := ""
	for _, cmd := range r.commands {
		if cmd.Format != "" {
			dict += cmd.Name + " " + cmd.Format + "\n"
		} else {
			dict += cmd.Name + "\n"
		}
	}
	return dict
}
