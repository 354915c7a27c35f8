package app

import (
	"context"

	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"overlayshell/internal/overlay"
)

// wailsEmitter forwards overlay events to the frontend through the Wails event bus
type wailsEmitter struct {
	ctx context.Context
}

func newWailsEmitter(ctx context.Context) overlay.Emitter {
	return wailsEmitter{ctx: ctx}
}

func (e wailsEmitter) Emit(event string, data interface{}) {
	wruntime.EventsEmit(e.ctx, event, data)
}
