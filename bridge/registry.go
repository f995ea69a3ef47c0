package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/strandhq/strand/types"
)

// ErrUnknownCommand indicates a dispatch to an unregistered command name.
var ErrUnknownCommand = errors.New("unknown command")

// Args carries the arguments of one command invocation. Commands read the
// fields they need and ignore the rest.
type Args struct {
	Topic   string
	ID      *types.FrameID
	Hash    string
	Payload []byte
	Meta    map[string]any
}

// Command is one callable store operation. The result is a *types.Frame
// (possibly nil for absent), []byte, or a hash string, depending on the
// command.
type Command func(ctx context.Context, h *Handle, args Args) (any, error)

// Registry is the explicit command table for the scripting surface.
// Constructed once at startup; immutable afterwards.
type Registry struct {
	handle *Handle
	cmds   map[string]Command
}

// NewRegistry builds the command table bound to one store handle.
func NewRegistry(h *Handle) *Registry {
	head := func(_ context.Context, h *Handle, args Args) (any, error) {
		return h.Head(args.Topic)
	}
	return &Registry{
		handle: h,
		cmds: map[string]Command{
			"head": head,
			// last shares head's contract: latest frame for a topic.
			"last": head,
			"get": func(ctx context.Context, h *Handle, args Args) (any, error) {
				if args.ID == nil {
					return nil, fmt.Errorf("get: id required")
				}
				return h.Get(ctx, *args.ID)
			},
			"append": func(ctx context.Context, h *Handle, args Args) (any, error) {
				return h.Append(ctx, args.Topic, args.Payload, args.Meta)
			},
			"cas-get": func(_ context.Context, h *Handle, args Args) (any, error) {
				return h.CASGet(args.Hash)
			},
			"cas-post": func(_ context.Context, h *Handle, args Args) (any, error) {
				return h.CASPost(bytes.NewReader(args.Payload))
			},
		},
	}
}

// Dispatch runs a named command.
func (r *Registry) Dispatch(ctx context.Context, name string, args Args) (any, error) {
	cmd, ok := r.cmds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd(ctx, r.handle, args)
}

// Commands returns the registered command names, sorted.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
