package agent

import "errors"

var (
	// ErrAgentNotRegistered indicates no agent serves the requested module.
	ErrAgentNotRegistered = errors.New("agent not registered")

	// ErrUnknownModule indicates a module name outside the closed set.
	ErrUnknownModule = errors.New("unknown module")
)
