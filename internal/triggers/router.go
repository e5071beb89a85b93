package triggers

import (
	"context"

	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/metrics"
)

// Router maps (collection, operation) to the handler bound to it.
type Router struct {
	routes map[string]Handler
	logger logger.Logger
}

func NewRouter(log logger.Logger) *Router {
	return &Router{
		routes: make(map[string]Handler),
		logger: log,
	}
}

// Register binds h to changes of op on collection. A later registration for the
// same pair replaces the earlier one.
func (r *Router) Register(collection string, op Operation, h Handler) {
	r.routes[routeKey(collection, op)] = h
}

// Dispatch runs the bound handler and reports whether one existed.
func (r *Router) Dispatch(ctx context.Context, source string, change *Change) bool {
	metrics.TriggerEventsReceived.WithLabelValues(source, change.Collection, string(change.Operation)).Inc()

	h, ok := r.routes[change.key()]
	if !ok {
		r.logger.Debug("No handler bound for change", map[string]interface{}{
			"source":     source,
			"collection": change.Collection,
			"operation":  change.Operation,
			"recordId":   change.RecordID,
		})
		return false
	}

	h.HandleChange(ctx, change)
	return true
}
