package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendTransportSend(t *testing.T) {
	var got resendEmail
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	transport := NewResendTransport(Config{APIKey: "re_test", Endpoint: server.URL, Timeout: time.Second})

	err := transport.Send(context.Background(), Message{
		From:    "EventHub <tickets@eventhub.test>",
		To:      "buyer@example.com",
		Subject: "Your tickets",
		HTML:    "<p>hi</p>",
		Text:    "hi",
		Attachments: []Attachment{
			{Filename: "tickets-ABCD1234.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, []string{"buyer@example.com"}, got.To)
	assert.Equal(t, "Your tickets", got.Subject)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "tickets-ABCD1234.pdf", got.Attachments[0].Filename)

	decoded, err := base64.StdEncoding.DecodeString(got.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(decoded))
}

func TestResendTransportErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer server.Close()

	transport := NewResendTransport(Config{APIKey: "re_test", Endpoint: server.URL})

	err := transport.Send(context.Background(), Message{To: "buyer@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestResendTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	transport := NewResendTransport(Config{APIKey: "re_test", Endpoint: server.URL, Timeout: 20 * time.Millisecond})

	err := transport.Send(context.Background(), Message{To: "buyer@example.com"})
	assert.Error(t, err)
}

func TestNewTransport(t *testing.T) {
	assert.IsType(t, &LogTransport{}, NewTransport(Config{}))
	assert.IsType(t, &ResendTransport{}, NewTransport(Config{APIKey: "re_test"}))

	assert.NoError(t, NewLogTransport().Send(context.Background(), Message{To: "a@example.com"}))
}
