// Package safego runs the auditor's post-response work (usage shipping,
// document archiving) in goroutines that cannot take the server down.
package safego

import (
	"log/slog"
	"runtime/debug"

	"github.com/policy-auditor/policy-auditor/internal/telemetry"
)

// Go runs fn in a new goroutine. A panic is recovered, logged with the task
// name and stack, and counted in auditor_background_panics_total.
func Go(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				telemetry.BackgroundPanicsTotal.WithLabelValues(task).Inc()
				slog.Error("recovered panic in background task",
					"task", task, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
