package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/provider"
)

var smsTopic = domain.NewTopic("t1", domain.NewSMS("m1", "9123456789", "hello"))

func TestWebhookSender_Send(t *testing.T) {
	var (
		got         provider.SendRequest
		method      string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(provider.SendResponse{MessageID: "provider-1", Status: "accepted"})
	}))
	defer srv.Close()

	s := provider.NewWebhookSender(srv.URL, time.Second)
	resp, err := s.Send(context.Background(), smsTopic)
	require.NoError(t, err)
	require.Equal(t, "provider-1", resp.MessageID)

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "t1", got.TopicID)
	require.Equal(t, "9123456789", got.To)
	require.Equal(t, "sms", got.Type)
	require.Equal(t, "hello", got.Content)
}

func TestWebhookSender_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := provider.NewWebhookSender(srv.URL, time.Second)
	_, err := s.Send(context.Background(), smsTopic)
	require.ErrorContains(t, err, "unexpected provider status: 500")
}

func TestWebhookSender_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := provider.NewWebhookSender(srv.URL, time.Second)
	_, err := s.Send(ctx, smsTopic)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStubSender(t *testing.T) {
	s := provider.NewStubSender()

	resp, err := s.Send(context.Background(), smsTopic)
	require.NoError(t, err)
	require.Equal(t, "m1", resp.MessageID)

	email := domain.NewTopic("t2", domain.NewEmail("m2", "a@gmail.com", "hi"))
	_, err = s.Send(context.Background(), email)
	require.ErrorIs(t, err, domain.ErrSendNotImplemented)
}
