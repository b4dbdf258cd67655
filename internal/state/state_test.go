package state

import (
	"testing"

	"github.com/godtiergamers/dlconfig/internal/schema"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T, doc string) *schema.Schema {
	s, err := schema.Normalize([]byte(doc))
	require.NoError(t, err)
	return s
}

const schemaA = `{"logs":{
	"player.join":{"default":true,"color":"#57F287"},
	"player.quit":{"default":false}
}}`

const schemaB = `{"logs":{
	"player.join":{"default":false,"color":"#000000"},
	"server.start":{"default":true,"color":"#43B581"}
}}`

const schemaC = `{"logs":{"moderation.kick":{"default":true}}}`

func TestWebhookConfirmationResets(t *testing.T) {
	s := New()
	s.SetWebhookURL(" https://discord.com/api/webhooks/1/abc ")
	require.Equal(t, "https://discord.com/api/webhooks/1/abc", s.WebhookURL())
	s.SetWebhookConfirmed(true)

	// same URL keeps the confirmation
	s.SetWebhookURL("https://discord.com/api/webhooks/1/abc")
	require.True(t, s.WebhookConfirmed())

	s.SetWebhookURL("https://discord.com/api/webhooks/1/abcd")
	require.False(t, s.WebhookConfirmed())
}

func TestSyncBackfillsAndPrunes(t *testing.T) {
	s := New()
	a := testSchema(t, schemaA)
	s.Sync(a)
	require.Equal(t, map[string]bool{"player.join": true, "player.quit": false}, s.Toggles)
	require.Equal(t, map[string]string{"player.join": "#57F287"}, s.Colors)

	require.NoError(t, s.SetToggle(a, "player.join", false))
	require.NoError(t, s.SetColor(a, "player.join", "#fff"))

	b := testSchema(t, schemaB)
	s.Sync(b)
	// user edits survive for keys that still exist
	require.Equal(t, map[string]bool{"player.join": false, "server.start": true}, s.Toggles)
	require.Equal(t, map[string]string{"player.join": "#fff", "server.start": "#43B581"}, s.Colors)

	c := testSchema(t, schemaC)
	s.Sync(c)
	require.Equal(t, map[string]bool{"moderation.kick": true}, s.Toggles)
	require.Empty(t, s.Colors)
}

func TestSyncKeysAreSubsetOfSchema(t *testing.T) {
	s := New()
	schemas := []*schema.Schema{
		testSchema(t, schemaA), testSchema(t, schemaB), testSchema(t, schemaC),
		testSchema(t, schemaB), testSchema(t, `{}`), testSchema(t, schemaA),
	}
	for _, sch := range schemas {
		s.Sync(sch)
		toggles := sch.ToggleDefaults()
		colors := sch.ColorDefaults()
		require.Len(t, s.Toggles, len(toggles))
		require.Len(t, s.Colors, len(colors))
		for k := range s.Toggles {
			require.Contains(t, toggles, k)
		}
		for k := range s.Colors {
			require.Contains(t, colors, k)
		}
	}
}

func TestSetToggleAndColorValidation(t *testing.T) {
	s := New()
	a := testSchema(t, schemaA)
	s.Sync(a)

	require.ErrorIs(t, s.SetToggle(a, "server.stop", true), ErrUnknownKey)
	require.ErrorIs(t, s.SetColor(a, "player.quit", "#ffffff"), ErrUnknownKey)
	require.ErrorIs(t, s.SetColor(a, "player.join", "57F287"), ErrInvalidColor)
	require.ErrorIs(t, s.SetColor(a, "player.join", "#12345"), ErrInvalidColor)
	require.NoError(t, s.SetColor(a, "player.join", " #ABCDEF "))
	require.Equal(t, "#ABCDEF", s.Colors["player.join"])
}

func TestParseOutputStyle(t *testing.T) {
	st, err := ParseOutputStyle("Embed")
	require.NoError(t, err)
	require.Equal(t, StyleStructured, st)
	st, err = ParseOutputStyle("plain")
	require.NoError(t, err)
	require.Equal(t, StylePlain, st)
	require.Equal(t, "plain", st.String())
	_, err = ParseOutputStyle("html")
	require.Error(t, err)
}
