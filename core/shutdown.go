package core

import (
	"context"
)

// ShutdownFunc releases one component during graceful shutdown. ctx carries
// the remaining shutdown deadline; a handler that blocks, such as one waiting
// for the frame loop to drain, must give up when it expires.
//
// Handlers are registered with the shutdown manager by name and priority:
//
//	manager.Register("stream hub", shutdown.PriorityServer, shutdown.Closer(hub))
//	manager.Register("pipeline", shutdown.PriorityStopIntake, shutdown.Cancel(cancel, done))
type ShutdownFunc func(ctx context.Context) error
