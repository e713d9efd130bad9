package app

import (
	"context"
	"fmt"
	"log/slog"

	"eventhub/internal/cache"
	"eventhub/internal/config"
	"eventhub/internal/consumers"
	"eventhub/internal/database"
	"eventhub/internal/mail"
	"eventhub/internal/messaging"
	"eventhub/internal/metrics"
	"eventhub/internal/models"
	"eventhub/internal/notify"
	"eventhub/internal/qr"
	"eventhub/internal/repository"
	"eventhub/internal/search"
	"eventhub/internal/service"
	"eventhub/internal/ticketcode"
	"eventhub/internal/ticketpdf"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type BookingRepository interface {
	service.BookingStore
	ticketcode.Registry
	Create(ctx context.Context, booking *models.Booking) error
}

type EventRepository interface {
	service.EventStore
	Create(ctx context.Context, event *models.Event) error
}

type UserRepository interface {
	service.UserStore
	Create(ctx context.Context, user *models.User) error
}

// Components holds the process-wide collaborators shared by the API and
// the consumers. Each is built once per process.
type Components struct {
	Config *config.Config

	DB       *database.DB
	Bookings BookingRepository
	Events   EventRepository
	Users    UserRepository

	Bus        messaging.Bus
	Ledger     notify.DeliveryLedger
	Search     *search.ElasticsearchClient
	Composer   *ticketpdf.Composer
	Dispatcher *notify.Dispatcher

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	closers []func() error
}

// Build connects the configured backends. STORAGE=memory and
// BROKER=memory run without PostgreSQL and NATS.
func Build(cfg *config.Config) (*Components, error) {
	c := &Components{Config: cfg}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.New(c.Registry)

	if err := c.buildStorage(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildBus(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildLedger(); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Elasticsearch.Enabled() {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			// Verification indexing is reporting only
			slog.Warn("Elasticsearch unavailable, verification indexing disabled", "error", err)
		} else {
			c.Search = es
		}
	}

	c.Composer = ticketpdf.NewComposer(qr.NewRenderer(), cfg.Tickets.PDF)
	c.Dispatcher = notify.NewDispatcher(cfg.Notify, mail.NewTransport(cfg.Mail), c.Composer,
		notify.WithLedger(c.Ledger),
		notify.WithMetrics(c.Metrics))

	return c, nil
}

func (c *Components) buildStorage() error {
	switch c.Config.Storage {
	case "memory":
		store := repository.NewMemoryStore()
		c.Bookings, c.Events, c.Users = store.Bookings, store.Events, store.Users
		slog.Warn("Using in-memory storage, data is lost on restart")
		return nil
	case "postgres", "":
	default:
		return fmt.Errorf("unknown storage %q", c.Config.Storage)
	}

	db, err := database.Connect(c.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.closers = append(c.closers, db.Close)

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repos := repository.NewRepositories(db)
	c.DB = db
	c.Bookings, c.Events, c.Users = repos.Bookings, repos.Events, repos.Users
	return nil
}

func (c *Components) buildBus() error {
	switch c.Config.Broker {
	case "memory":
		c.Bus = messaging.NewMemoryBus()
	case "nats", "":
		nc, err := messaging.NewNATSClient(c.Config.NATS)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		c.Bus = nc
	default:
		return fmt.Errorf("unknown broker %q", c.Config.Broker)
	}
	c.closers = append(c.closers, c.Bus.Close)
	return nil
}

func (c *Components) buildLedger() error {
	if c.Config.Valkey.Addr == "" {
		c.Ledger = notify.NewMemoryLedger()
		return nil
	}

	ledger, err := cache.NewValkeyLedger(c.Config.Valkey)
	if err != nil {
		return fmt.Errorf("failed to connect to Valkey: %w", err)
	}
	c.Ledger = ledger
	c.closers = append(c.closers, ledger.Close)
	return nil
}

// InProcessConsumers reports whether the API must run the consumers
// itself because the broker does not leave the process
func (c *Components) InProcessConsumers() bool {
	_, ok := c.Bus.(*messaging.MemoryBus)
	return ok
}

func (c *Components) Services() *service.Services {
	return service.NewServices(service.Deps{
		Bookings:       c.Bookings,
		Events:         c.Events,
		Users:          c.Users,
		Publisher:      c.Bus,
		Codes:          ticketcode.NewGenerator(c.Bookings),
		Renderer:       c.Composer,
		Newsletter:     c.Dispatcher,
		Metrics:        c.Metrics,
		SingleUseEntry: c.Config.Tickets.SingleUseEntry,
	})
}

func (c *Components) Consumers() *consumers.ConsumerService {
	var indexer consumers.Indexer
	if c.Search != nil {
		indexer = c.Search
	}
	handlers := consumers.NewHandlers(c.Bookings, c.Events, c.Users, c.Dispatcher, indexer)
	return consumers.NewConsumerService(c.Bus, handlers)
}

// Close releases connections in reverse order of creation
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			slog.Error("Error during cleanup", "error", err)
		}
	}
	c.closers = nil
}
