package ticketcode

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	apperrors "eventhub/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRegistry struct {
	issued map[string]bool
	calls  int
	err    error
	all    bool
}

func newMemoryRegistry(codes ...string) *memoryRegistry {
	r := &memoryRegistry{issued: map[string]bool{}}
	for _, c := range codes {
		r.issued[c] = true
	}
	return r
}

func (r *memoryRegistry) ExistingCodes(_ context.Context, codes []string) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var taken []string
	for _, c := range codes {
		if r.all || r.issued[c] {
			taken = append(taken, c)
		}
	}
	return taken, nil
}

func (r *memoryRegistry) issue(codes []string) {
	for _, c := range codes {
		r.issued[c] = true
	}
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}-\d{2}-[A-HJ-NP-Z2-9]{8}$`)

func TestGenerateReturnsQuantityDistinctCodes(t *testing.T) {
	g := NewGenerator(newMemoryRegistry())

	codes, err := g.Generate(context.Background(), "7f1c2a9e-4b3d-4e1a-9c00-5d2b8a41f0c3", 5)
	require.NoError(t, err)
	require.Len(t, codes, 5)

	seen := map[string]bool{}
	for i, code := range codes {
		assert.Regexp(t, codePattern, code)
		assert.Contains(t, code, "41F0C3-")
		assert.Contains(t, code, []string{"-01-", "-02-", "-03-", "-04-", "-05-"}[i])
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestGenerateRegeneratesCollidingCodes(t *testing.T) {
	bookingID := "00000000-0000-0000-0000-0000000abcde"
	registry := newMemoryRegistry("0ABCDE-01-AAAAAAAA")
	random := bytes.NewReader(append(bytes.Repeat([]byte{0}, 8), bytes.Repeat([]byte{1}, 8)...))
	g := NewGenerator(registry, WithRand(random))

	codes, err := g.Generate(context.Background(), bookingID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0ABCDE-01-BBBBBBBB"}, codes)
	assert.Equal(t, 2, registry.calls)
}

func TestGenerateFailsWhenUniquenessCannotBeEstablished(t *testing.T) {
	registry := newMemoryRegistry()
	registry.all = true
	g := NewGenerator(registry, WithMaxAttempts(3))

	codes, err := g.Generate(context.Background(), uuid.NewString(), 2)
	assert.ErrorIs(t, err, apperrors.ErrTicketCodesExhausted)
	assert.Nil(t, codes)
	assert.Equal(t, 3, registry.calls)
}

func TestGeneratePropagatesRegistryErrors(t *testing.T) {
	registry := newMemoryRegistry()
	registry.err = errors.New("connection refused")
	g := NewGenerator(registry)

	_, err := g.Generate(context.Background(), uuid.NewString(), 1)
	assert.ErrorContains(t, err, "connection refused")
}

func TestGenerateRejectsNonPositiveQuantity(t *testing.T) {
	g := NewGenerator(newMemoryRegistry())

	_, err := g.Generate(context.Background(), uuid.NewString(), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
}

func TestGenerateIsUniqueAcrossBookings(t *testing.T) {
	registry := newMemoryRegistry()
	g := NewGenerator(registry)
	all := map[string]bool{}

	for i := 0; i < 100; i++ {
		codes, err := g.Generate(context.Background(), uuid.NewString(), 4)
		require.NoError(t, err)
		for _, code := range codes {
			require.False(t, all[code], "code %s issued twice", code)
			all[code] = true
		}
		registry.issue(codes)
	}
	assert.Len(t, all, 400)
}
