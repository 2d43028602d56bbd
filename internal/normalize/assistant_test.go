package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/circulab/marketplace-go/internal/model"
)

func TestAssistantMessageContentNeverEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []model.Segment
	}{
		{
			name: "plain string content",
			raw:  `{"id": "m1", "content": "Bonjour"}`,
			want: []model.Segment{{Type: model.SegmentText, Text: "Bonjour"}},
		},
		{
			name: "segment array",
			raw:  `{"id": "m2", "content": [{"type": "text", "text": "Voici"}, {"type": "link", "url": "https://circulab.fr", "label": "le lien"}]}`,
			want: []model.Segment{
				{Type: model.SegmentText, Text: "Voici"},
				{Type: model.SegmentLink, URL: "https://circulab.fr", Label: "le lien"},
			},
		},
		{
			name: "bare strings in array",
			raw:  `{"id": "m3", "content": ["un", "deux"]}`,
			want: []model.Segment{
				{Type: model.SegmentText, Text: "un"},
				{Type: model.SegmentText, Text: "deux"},
			},
		},
		{
			name: "text fallback field",
			raw:  `{"id": "m4", "text": "repli"}`,
			want: []model.Segment{{Type: model.SegmentText, Text: "repli"}},
		},
		{
			name: "missing content synthesizes placeholder",
			raw:  `{"id": "m5"}`,
			want: []model.Segment{{Type: model.SegmentText, Text: "Message vide"}},
		},
		{
			name: "empty object content synthesizes placeholder",
			raw:  `{"id": "m6", "content": {}}`,
			want: []model.Segment{{Type: model.SegmentText, Text: "Message vide"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := AssistantMessage(decode(t, tt.raw))
			require.NotEmpty(t, msg.Content)
			require.Equal(t, tt.want, msg.Content)
		})
	}
}

func TestSegmentDiscriminator(t *testing.T) {
	t.Run("button", func(t *testing.T) {
		msg := AssistantMessage(decode(t, `{"id": "m", "content": [{"type": "button", "label": "Contacter", "action": "contact"}]}`))
		require.Equal(t, []model.Segment{{Type: model.SegmentButton, Label: "Contacter", Action: "contact"}}, msg.Content)
	})

	t.Run("action with payload", func(t *testing.T) {
		msg := AssistantMessage(decode(t, `{"id": "m", "content": [{"type": "action", "action": "open_profile", "payload": {"company_id": "co-1"}}]}`))
		require.Equal(t, model.SegmentAction, msg.Content[0].Type)
		require.Equal(t, "open_profile", msg.Content[0].Action)
		require.Equal(t, map[string]string{"company_id": "co-1"}, msg.Content[0].Payload)
	})

	t.Run("unknown type degrades to text", func(t *testing.T) {
		msg := AssistantMessage(decode(t, `{"id": "m", "content": [{"type": "markdown", "text": "**gras**"}]}`))
		require.Equal(t, []model.Segment{{Type: model.SegmentText, Text: "**gras**"}}, msg.Content)
	})

	t.Run("unknown type without text is dropped", func(t *testing.T) {
		msg := AssistantMessage(decode(t, `{"id": "m", "content": [{"type": "widget"}, {"type": "text", "text": "ok"}]}`))
		require.Equal(t, []model.Segment{{Type: model.SegmentText, Text: "ok"}}, msg.Content)
	})
}

func TestAssistantMessageRoleAndStatus(t *testing.T) {
	msg := AssistantMessage(decode(t, `{"id": "m", "role": "human", "status": "pending", "content": "x"}`))
	require.Equal(t, model.RoleUser, msg.Role)
	require.Equal(t, model.MessagePending, msg.Status)

	defaults := AssistantMessage(decode(t, `{"id": "m", "content": "x"}`))
	require.Equal(t, model.RoleAssistant, defaults.Role)
	require.Equal(t, model.MessageCompleted, defaults.Status)
}

func TestConversationsDropMissingID(t *testing.T) {
	out := Conversations(decode(t, `{"data": [
		{"id": "c1", "title": "Recherche partenaires"},
		{"title": "sans id"}
	]}`))
	require.Len(t, out, 1)
	require.Equal(t, "c1", out[0].ID)
	require.Equal(t, "Recherche partenaires", out[0].Title)
}
