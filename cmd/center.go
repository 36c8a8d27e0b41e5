package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

// Center handles command registration, parsing and execution.
type Center struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

func NewCenter() *Center {
	return &Center{
		cmds: make(map[string]Command),
	}
}

// Register registers a custom command
func (c *Center) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}

	c.cmds[name] = cmd
	return nil
}

// Unregister removes a registered command
func (c *Center) Unregister(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cmds[name]; !exists {
		return fmt.Errorf("command not found: %s", name)
	}

	delete(c.cmds, name)
	return nil
}

// Get returns a command by name
func (c *Center) Get(name string) (Command, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cmd, exists := c.cmds[name]
	if !exists {
		return nil, fmt.Errorf("command not found: %s", name)
	}

	return cmd, nil
}

// List returns all registered commands sorted by name
func (c *Center) List() []Command {
	c.mu.RLock()
	defer c.mu.RUnlock()

	commands := make([]Command, 0, len(c.cmds))
	for _, cmd := range c.cmds {
		commands = append(commands, cmd)
	}

	slices.SortFunc(commands, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return commands
}

// Execute parses and executes a command
func (c *Center) Execute(ctx context.Context, api API, writer io.Writer, args ...string) (int, error) {
	if len(args) == 0 {
		return 1, fmt.Errorf("no command specified")
	}

	cmd, err := c.Get(args[0])
	if err != nil {
		return 127, err
	}

	parsedArgs, err := NewParser(cmd.GetFlags()).Parse(args[1:])
	if err != nil {
		return 2, fmt.Errorf("parse error: %w", err)
	}

	return cmd.Execute(ctx, api, parsedArgs, writer)
}

// ExecuteLine splits line and executes the resulting command.
func (c *Center) ExecuteLine(ctx context.Context, api API, writer io.Writer, line string) (int, error) {
	args, err := SplitLine(line)
	if err != nil {
		return 2, fmt.Errorf("parse error: %w", err)
	}
	if len(args) == 0 {
		return 0, nil
	}

	return c.Execute(ctx, api, writer, args...)
}

// Help writes the usage of every registered command.
func (c *Center) Help(writer io.Writer) {
	for _, cmd := range c.List() {
		fmt.Fprintf(writer, "  %-28s %s\n", cmd.Usage(), cmd.Description())
	}
}
