package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"eventhub/internal/app"
	"eventhub/internal/config"
	"eventhub/internal/logger"
	"eventhub/internal/middleware"
	"eventhub/internal/models"

	"github.com/joho/godotenv"
)

var (
	quantity  = flag.Int("quantity", 2, "Number of tickets in the seeded booking")
	email     = flag.String("email", "buyer@example.com", "Purchaser email")
	eventName = flag.String("event", "Sample Concert", "Event title")
	price     = flag.Int64("price", 150000, "Ticket price in minor units")
	actor     = flag.String("actor", "gate-1", "Subject of the printed API token")
	dryRun    = flag.Bool("dry-run", false, "Show what would be created without making changes")
)

// Seeder creates a purchaser, an event and a pending booking to run the
// ticket pipeline against, and prints an API token for the calls.
type Seeder struct {
	components *app.Components
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	if *quantity < 1 {
		logger.Fatal("quantity must be positive", "quantity", *quantity)
	}

	if *dryRun {
		slog.Info("Dry run", "event", *eventName, "email", *email, "quantity", *quantity, "total", *price*int64(*quantity))
		return
	}

	// Seeding publishes nothing
	cfg.Broker = "memory"

	components, err := app.Build(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components", "error", err)
	}
	defer components.Close()

	seeder := &Seeder{components: components}
	booking, err := seeder.Seed(context.Background())
	if err != nil {
		slog.Error("Failed to seed booking", "error", err)
		os.Exit(1)
	}

	fmt.Printf("booking_id=%s\n", booking.ID)

	if cfg.Auth.JWTSecret != "" {
		token, err := middleware.IssueToken(cfg.Auth.JWTSecret, *actor, "operator", 24*time.Hour)
		if err != nil {
			slog.Error("Failed to issue token", "error", err)
			os.Exit(1)
		}
		fmt.Printf("token=%s\n", token)
	}
}

func (s *Seeder) Seed(ctx context.Context) (*models.Booking, error) {
	user := &models.User{Name: "Sample Buyer", Email: *email}
	if err := s.components.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	event := &models.Event{
		Title:         *eventName,
		Date:          time.Now().Add(14 * 24 * time.Hour).Truncate(time.Hour),
		Location:      "Main Hall",
		Price:         *price,
		OrganizerName: "EventHub Live",
	}
	if err := s.components.Events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	booking := &models.Booking{
		EventID:    event.ID,
		UserID:     user.ID,
		Quantity:   *quantity,
		TotalPrice: event.Price * int64(*quantity),
		Status:     models.BookingPending,
	}
	for i := 0; i < *quantity; i++ {
		attendee := models.Attendee{Name: fmt.Sprintf("Guest %d", i+1)}
		if i == 0 {
			attendee = models.Attendee{Name: user.Name, Email: user.Email}
		}
		booking.AttendeeDetails = append(booking.AttendeeDetails, attendee)
	}
	if err := s.components.Bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	slog.Info("Seeded booking",
		"booking_id", booking.ID,
		"event_id", event.ID,
		"user_id", user.ID,
		"quantity", booking.Quantity)
	return booking, nil
}
