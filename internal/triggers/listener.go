package triggers

import (
	"context"
	"sync"
	"time"

	"synctask-notifications/internal/common/logger"

	"github.com/lib/pq"
)

const SourcePostgres = "postgres"

// NotificationSource is satisfied by *pq.Listener.
type NotificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
}

// PostgresSource feeds LISTEN/NOTIFY payloads into a Router. Each notification
// is handled on its own goroutine.
type PostgresSource struct {
	source       NotificationSource
	router       *Router
	logger       logger.Logger
	pingInterval time.Duration
	wg           sync.WaitGroup
}

func NewPostgresSource(source NotificationSource, router *Router, pingInterval time.Duration, log logger.Logger) *PostgresSource {
	return &PostgresSource{
		source:       source,
		router:       router,
		logger:       log,
		pingInterval: pingInterval,
	}
}

// Run blocks until ctx is done or the notification channel closes, then waits
// for in-flight handlers.
func (p *PostgresSource) Run(ctx context.Context) error {
	defer p.wg.Wait()

	ticker := time.NewTicker(p.pingInterval)
	defer ticker.Stop()

	notifications := p.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n, ok := <-notifications:
			if !ok {
				p.logger.Warn("Notification channel closed", nil)
				return nil
			}
			if n == nil {
				// pq sends nil after re-establishing the connection
				p.logger.Info("Listener reconnected; notifications sent while disconnected were lost", nil)
				continue
			}
			p.handle(ctx, n)

		case <-ticker.C:
			go func() {
				if err := p.source.Ping(); err != nil {
					p.logger.Warn("Listener ping failed", map[string]interface{}{"error": err})
				}
			}()
		}
	}
}

func (p *PostgresSource) handle(ctx context.Context, n *pq.Notification) {
	change, err := Decode(SourcePostgres, []byte(n.Extra))
	if err != nil {
		p.logger.Warn("Discarding malformed change notification", map[string]interface{}{
			"channel": n.Channel,
			"error":   err,
		})
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.router.Dispatch(context.WithoutCancel(ctx), SourcePostgres, change)
	}()
}
