package normalize

import (
	"github.com/circulab/marketplace-go/internal/model"
)

// emptyMessageText is the display fallback when a message carries no usable
// text at all.
const emptyMessageText = "Message vide"

// AssistantMessage normalizes one raw assistant message. Content is never
// empty: when the payload carries no usable segment, a single text segment
// with a placeholder is synthesized.
func AssistantMessage(v any) model.AssistantMessage {
	o := UnwrapObject(v, "message", "data")

	msg := model.AssistantMessage{
		ID:        o.String("", "id", "message_id", "messageId", "uuid"),
		Role:      normalizeRole(o.String("assistant", "role", "sender", "author")),
		Status:    o.String(model.MessageCompleted, "status", "state"),
		Content:   segments(o),
		CreatedAt: CoerceDate(o.Pick("created_at", "createdAt", "timestamp", "date")),
	}
	return msg
}

// AssistantMessages normalizes a message list response.
func AssistantMessages(v any) []model.AssistantMessage {
	raw := Unwrap(v, "data", "result", "items", "messages", "updates")
	out := make([]model.AssistantMessage, 0, len(raw))
	for _, o := range raw {
		out = append(out, AssistantMessage(map[string]any(o)))
	}
	return out
}

// Conversation normalizes a conversation list entry.
func Conversation(v any) model.Conversation {
	o := UnwrapObject(v, "conversation", "data")
	return model.Conversation{
		ID:                 o.String("", "id", "conversation_id", "conversationId", "uuid"),
		Title:              o.String("", "title", "name", "subject"),
		CompanyName:        o.String("", "company_name", "companyName", "company"),
		Status:             o.String("", "status", "state"),
		LastMessagePreview: o.String("", "last_message_preview", "lastMessagePreview", "last_message", "preview"),
		LastMessageAt:      CoerceDate(o.Pick("last_message_at", "lastMessageAt", "updated_at", "updatedAt")),
	}
}

// Conversations normalizes a conversation list response. Entries without an
// ID are dropped.
func Conversations(v any) []model.Conversation {
	raw := Unwrap(v, "data", "result", "items", "conversations")
	out := make([]model.Conversation, 0, len(raw))
	for _, o := range raw {
		c := Conversation(map[string]any(o))
		if c.ID == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func normalizeRole(raw string) model.Role {
	switch raw {
	case "user", "human":
		return model.RoleUser
	case "system":
		return model.RoleSystem
	default:
		return model.RoleAssistant
	}
}

// segments extracts the content segment list. The raw content field may be a
// segment array, a bare string, or an empty object; the fallback chain is
// content, then text/body/message as a plain string, then the placeholder.
func segments(o Object) []model.Segment {
	switch content := o.Pick("content", "segments", "parts").(type) {
	case []any:
		out := make([]model.Segment, 0, len(content))
		for _, item := range content {
			if seg, ok := segment(AsObject(item)); ok {
				out = append(out, seg)
			} else if s, ok := item.(string); ok && s != "" {
				out = append(out, model.Segment{Type: model.SegmentText, Text: s})
			}
		}
		if len(out) > 0 {
			return out
		}
	case string:
		if content != "" {
			return []model.Segment{{Type: model.SegmentText, Text: content}}
		}
	case map[string]any:
		inner := Object(content)
		if seg, ok := segment(inner); ok {
			return []model.Segment{seg}
		}
		if text := inner.String("", "text", "body", "message", "value"); text != "" {
			return []model.Segment{{Type: model.SegmentText, Text: text}}
		}
	}

	if text := o.String("", "text", "body", "message"); text != "" {
		return []model.Segment{{Type: model.SegmentText, Text: text}}
	}
	return []model.Segment{{Type: model.SegmentText, Text: emptyMessageText}}
}

// segment converts one raw segment object, keyed by its type/kind
// discriminator. Unknown discriminators degrade to a text segment when any
// text is present.
func segment(o Object) (model.Segment, bool) {
	if len(o) == 0 {
		return model.Segment{}, false
	}

	text := o.String("", "text", "body", "value", "content")
	switch o.String("", "type", "kind") {
	case "text":
		if text == "" {
			return model.Segment{}, false
		}
		return model.Segment{Type: model.SegmentText, Text: text}, true
	case "link":
		return model.Segment{
			Type:  model.SegmentLink,
			URL:   o.String("", "url", "href"),
			Label: o.String("", "label", "title", "text"),
		}, true
	case "button":
		return model.Segment{
			Type:   model.SegmentButton,
			Label:  o.String("", "label", "title", "text"),
			Action: o.String("", "action", "command"),
		}, true
	case "action":
		return model.Segment{
			Type:    model.SegmentAction,
			Action:  o.String("", "action", "name", "command"),
			Payload: stringMap(o.Child("payload", "params", "data")),
		}, true
	default:
		if text == "" {
			return model.Segment{}, false
		}
		return model.Segment{Type: model.SegmentText, Text: text}, true
	}
}

func stringMap(o Object) map[string]string {
	if len(o) == 0 {
		return nil
	}
	out := make(map[string]string, len(o))
	for k := range o {
		if s := o.String("", k); s != "" {
			out[k] = s
		}
	}
	return out
}
