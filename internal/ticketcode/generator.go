// Package ticketcode assigns ticket numbers to confirmed bookings.
//
// A ticket number has the form SUFFIX-NN-TOKEN where SUFFIX is the tail
// of the booking ID, NN the 1-based seat index and TOKEN a random code
// drawn from crypto/rand. Only upper-case letters, digits and '-' are
// used so the number fits the QR alphanumeric mode and URLs unescaped.
package ticketcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/logger"
)

// alphabet omits 0/O and 1/I. Its length is 32 so a random byte maps
// onto it without bias.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultTokenLength = 8
	DefaultMaxAttempts = 5
	suffixLength       = 6
)

// Registry answers which of the candidate codes are already issued
type Registry interface {
	ExistingCodes(ctx context.Context, codes []string) ([]string, error)
}

type Generator struct {
	registry    Registry
	rand        io.Reader
	tokenLength int
	maxAttempts int
}

type Option func(*Generator)

// WithRand replaces crypto/rand as the token source
func WithRand(r io.Reader) Option {
	return func(g *Generator) { g.rand = r }
}

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithTokenLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.tokenLength = n
		}
	}
}

func NewGenerator(registry Registry, opts ...Option) *Generator {
	g := &Generator{
		registry:    registry,
		rand:        rand.Reader,
		tokenLength: DefaultTokenLength,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns exactly quantity distinct ticket numbers, none of
// which the registry reports as taken. Colliding codes are regenerated
// up to the configured number of attempts; after that the whole batch
// fails with ErrTicketCodesExhausted.
func (g *Generator) Generate(ctx context.Context, bookingID string, quantity int) ([]string, error) {
	if quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	prefix := bookingSuffix(bookingID)
	codes := make([]string, quantity)
	pending := make([]int, quantity)
	for i := range pending {
		pending[i] = i
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		for _, i := range pending {
			token, err := g.token()
			if err != nil {
				return nil, fmt.Errorf("failed to read random token: %w", err)
			}
			codes[i] = fmt.Sprintf("%s-%02d-%s", prefix, i+1, token)
		}

		candidates := make([]string, 0, len(pending))
		for _, i := range pending {
			candidates = append(candidates, codes[i])
		}

		taken, err := g.registry.ExistingCodes(ctx, candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to check ticket number uniqueness: %w", err)
		}

		pending = collisions(codes, pending, taken)
		if len(pending) == 0 {
			return codes, nil
		}

		logger.WithBooking(ctx, bookingID).Warn("Ticket number collision, regenerating",
			"attempt", attempt,
			"collisions", len(pending))
	}

	return nil, apperrors.ErrTicketCodesExhausted
}

// collisions returns the indices among pending whose code is either
// taken or repeated within the batch
func collisions(codes []string, pending []int, taken []string) []int {
	takenSet := make(map[string]struct{}, len(taken))
	for _, code := range taken {
		takenSet[code] = struct{}{}
	}

	seen := make(map[string]struct{}, len(codes))
	var retry []int
	for i, code := range codes {
		_, isTaken := takenSet[code]
		_, dup := seen[code]
		seen[code] = struct{}{}
		if (isTaken && isPending(pending, i)) || dup {
			retry = append(retry, i)
		}
	}
	return retry
}

func isPending(pending []int, i int) bool {
	for _, p := range pending {
		if p == i {
			return true
		}
	}
	return false
}

func (g *Generator) token() (string, error) {
	buf := make([]byte, g.tokenLength)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

func bookingSuffix(bookingID string) string {
	id := strings.ToUpper(strings.ReplaceAll(bookingID, "-", ""))
	if len(id) > suffixLength {
		id = id[len(id)-suffixLength:]
	}
	if id == "" {
		id = "EH"
	}
	return id
}
