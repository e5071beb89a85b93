// internal/common/database/listener.go
package database

import (
	"fmt"
	"time"

	"synctask-notifications/internal/common/config"
	"synctask-notifications/internal/common/logger"

	"github.com/lib/pq"
)

// NewListener opens a LISTEN connection on the trigger channel. Connection
// state changes are logged; pq reconnects on its own between the configured
// intervals.
func NewListener(pg config.PostgresConfig, triggers config.TriggersConfig, log logger.Logger) (*pq.Listener, error) {
	minInterval := config.GetDuration(triggers.MinReconnectInterval)
	maxInterval := config.GetDuration(triggers.MaxReconnectInterval)

	listener := pq.NewListener(pg.GetDSN(), minInterval, maxInterval, func(ev pq.ListenerEventType, err error) {
		fields := map[string]interface{}{
			"channel": triggers.Channel,
			"event":   listenerEventName(ev),
		}
		if err != nil {
			fields["error"] = err
			log.Warn("Postgres listener event", fields)
			return
		}
		log.Info("Postgres listener event", fields)
	})

	if err := listener.Listen(triggers.Channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen on channel %s: %w", triggers.Channel, err)
	}

	return listener, nil
}

// PingInterval is how often an idle listener checks its connection.
const PingInterval = 90 * time.Second

func listenerEventName(ev pq.ListenerEventType) string {
	switch ev {
	case pq.ListenerEventConnected:
		return "connected"
	case pq.ListenerEventDisconnected:
		return "disconnected"
	case pq.ListenerEventReconnected:
		return "reconnected"
	case pq.ListenerEventConnectionAttemptFailed:
		return "connection_attempt_failed"
	}
	return "unknown"
}
