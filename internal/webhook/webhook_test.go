package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func TestIsValidURL(t *testing.T) {
	valid := []string{
		"https://discord.com/api/webhooks/123456789012345678/AbCdEf-123_token",
		"https://ptb.discord.com/api/webhooks/123456789012345678/AbCdEf-123_token",
		"https://canary.discord.com/api/webhooks/123456789012345678/AbCdEf-123_token",
		"https://discordapp.com/api/webhooks/123456789012345678/AbCdEf-123_token",
		"https://discord.com/api/webhooks/123456789012345678/AbCdEf-123_token?wait=true",
		"https://discord.com/api/webhooks/123456789012345678/AbCdEf-123_token?thread_id=1&wait=true",
		"HTTPS://DISCORD.COM/api/webhooks/1/x",
	}
	for _, u := range valid {
		require.True(t, IsValidURL(u), u)
	}
	invalid := []string{
		"",
		"http://discord.com/api/webhooks/123456789012345678/AbCdEf-123_token",
		"https://discordapp.com/api/webhooks/abc/token",
		"https://example.com/api/webhooks/123/token",
		"https://discord.com.evil.io/api/webhooks/123/token",
		"https://evil.discord.com/api/webhooks/123/token",
		"https://discord.com/api/webhooks/123/",
		"https://discord.com/api/webhooks/123/tok en",
	}
	for _, u := range invalid {
		require.False(t, IsValidURL(u), u)
	}
}

func TestWithWaitParam(t *testing.T) {
	require.Equal(t, "https://x/y?wait=true", WithWaitParam("https://x/y"))
	require.Equal(t, "https://x/y?z=1&wait=true", WithWaitParam("https://x/y?z=1"))
}

func TestTestPayload(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CEST", 2*3600))
	p := TestPayload(now)
	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	require.Equal(t, "DiscordLogger Webhook Test", e.Title)
	require.Equal(t, 5814783, e.Color)
	require.Equal(t, "2024-05-06T05:08:09Z", e.Timestamp)
	require.Equal(t, e.Author.IconURL, e.Thumbnail.URL)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	require.Contains(t, fields, "embeds")
	require.NotContains(t, fields, "content")
	require.NotContains(t, fields, "attachments")
}

func TestClientDirect(t *testing.T) {
	var gotQuery string
	var got discordgo.WebhookParams
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer ts.Close()

	c := NewClient(Direct{}, time.Second)
	res := c.Test(context.Background(), ts.URL+"/api/webhooks/1/abc", TestPayload(time.Now()))
	require.True(t, res.OK)
	require.Equal(t, http.StatusOK, res.Status)
	require.Equal(t, "wait=true", gotQuery)
	require.Equal(t, "DiscordLogger Webhook Test", got.Embeds[0].Title)
}

func TestClientDirectFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Unknown Webhook", "code": 10015}`))
	}))
	c := NewClient(nil, time.Second)
	require.Equal(t, Direct{}, c.Route())

	res := c.Test(context.Background(), ts.URL, TestPayload(time.Now()))
	require.False(t, res.OK)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.Contains(t, res.Detail, "Unknown Webhook")

	// unreachable host still yields a definite result
	ts.Close()
	res = c.Test(context.Background(), ts.URL, TestPayload(time.Now()))
	require.False(t, res.OK)
	require.Equal(t, 0, res.Status)
	require.NotEmpty(t, res.Detail)
}

func TestClientServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	res := NewClient(Direct{}, time.Second).Test(context.Background(), ts.URL, map[string]string{"content": "hi"})
	require.False(t, res.OK)
	require.Equal(t, http.StatusBadGateway, res.Status)
	require.Equal(t, "Bad Gateway", res.Detail)
	require.Equal(t, 1, calls)
}

func TestClientRelayed(t *testing.T) {
	var got RelayRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/relay", r.URL.Path)
		require.Equal(t, "https://discordlogger.godtiergamers.xyz", r.Header.Get("Origin"))
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(Relayed{Endpoint: ts.URL + "/relay", Origin: "https://discordlogger.godtiergamers.xyz"}, time.Second)
	hook := "https://discord.com/api/webhooks/1/abc"
	res := c.Test(context.Background(), hook, map[string]string{"content": "hi"})
	require.True(t, res.OK)
	require.Equal(t, hook+"?wait=true", got.URL)
	require.JSONEq(t, `{"content":"hi"}`, string(got.Payload))
}
