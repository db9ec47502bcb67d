package shell

import (
	"sync"

	"cmdshell-go/errcode"
)

// Command is one executable shell entry. Run receives the full token
// vector, command name included. The optional Lock/Unlock pair serializes
// a command shared between several shell instances.
type Command struct {
	Name   string
	Help   string
	Run    func(argc int, argv []string) error
	Lock   func()
	Unlock func()
}

// Registry holds the commands a shell can dispatch to. Lookup is by
// name, which is what the dispatch loop needs; Add also rejects the same
// descriptor twice by identity.
type Registry struct {
	mu   sync.Mutex
	cmds []*Command
}

func (r *Registry) Add(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Run == nil {
		return errcode.InvalidArgs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cmds {
		if c == cmd || c.Name == cmd.Name {
			return errcode.InUse
		}
	}
	r.cmds = append(r.cmds, cmd)
	return nil
}

// Remove unlinks by identity; an absent command is a distinct error.
func (r *Registry) Remove(cmd *Command) error {
	if cmd == nil {
		return errcode.InvalidArgs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.cmds {
		if c == cmd {
			r.cmds = append(r.cmds[:i], r.cmds[i+1:]...)
			return nil
		}
	}
	return errcode.NotFound
}

func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cmds {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (r *Registry) Contains(cmd *Command) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cmds {
		if c == cmd {
			return true
		}
	}
	return false
}

// Commands returns a snapshot for iteration.
func (r *Registry) Commands() []*Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cmds)
}

func (r *Registry) clear() {
	r.mu.Lock()
	r.cmds = nil
	r.mu.Unlock()
}

// Exec invokes the command callback, holding its lock hooks around the
// call when present.
func Exec(cmd *Command, argv []string) error {
	if cmd == nil || cmd.Run == nil {
		return errcode.InvalidArgs
	}
	if cmd.Lock != nil {
		cmd.Lock()
	}
	if cmd.Unlock != nil {
		defer cmd.Unlock()
	}
	return cmd.Run(len(argv), argv)
}
