package queue

import (
	"context"
	"sync"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrUnknownTask is returned when no handler is registered for a task name
var ErrUnknownTask = goerr.New("no handler registered for task")

// Handler executes one task. Returning an error wrapped by Permanent stops retries.
type Handler func(ctx context.Context, task *model.Task) error

// Router maps task names to handlers
type Router struct {
	mu       sync.RWMutex
	handlers map[types.TaskName]Handler
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[types.TaskName]Handler),
	}
}

// Handle registers h for name, replacing any previous handler
func (r *Router) Handle(name types.TaskName, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Dispatch runs the handler registered for the task
func (r *Router) Dispatch(ctx context.Context, task *model.Task) error {
	r.mu.RLock()
	h, ok := r.handlers[task.Name]
	r.mu.RUnlock()

	if !ok {
		return Permanent(goerr.Wrap(ErrUnknownTask, "cannot dispatch task",
			goerr.V("task_id", task.ID), goerr.V("name", task.Name)))
	}
	return h(ctx, task)
}
