// Package toolclient defines the port for executing a validated tool call on
// the tool server.
package toolclient

import (
	"context"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// Invoker executes one call and returns its result. A tool-level failure is
// reported in the Result; the error return is reserved for transport and
// protocol failures and wraps domain.ErrTransport.
type Invoker interface {
	Invoke(ctx context.Context, call tool.Call) (tool.Result, error)
}
