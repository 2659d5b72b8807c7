package services

import (
	"context"
	"errors"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/DickShmiggleTM/RepoFusion/internal/events"
)

// EventEmitterService gates the backend event stream: the frontend opens it
// once its listeners are registered, so no progress event fires into a UI
// that is not ready to render it.
type EventEmitterService struct {
	context context.Context
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func (e *EventEmitterService) Startup(ctx context.Context) {
	e.context = ctx
}

func NewEventEmitterService() *EventEmitterService {
	return &EventEmitterService{}
}

func (e *EventEmitterService) StartStream() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.context == nil || e.running {
		return false
	}

	e.context, e.cancel = context.WithCancel(e.context)
	e.running = true
	return true
}

func (e *EventEmitterService) EmitEvent(name string, event events.Event) error {
	if e == nil || e.context == nil {
		return errors.New("emitter is not initialized")
	}

	if e.running {
		runtime.EventsEmit(e.context, name, event)
	}
	return nil
}

func (e *EventEmitterService) StopStream() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.cancel != nil {
		e.cancel()
	}
	e.running = false
}
