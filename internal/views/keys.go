// Package views composes the cache, mutation, and API layers into page-level
// facades: suggestions, assistant chat, company profile, admin dashboard, and
// data import. Each view is the single object a presentation layer consumes.
package views

import (
	"github.com/circulab/marketplace-go/internal/cache"
)

// Canonical cache keys.
var (
	KeySuggestionsList   = cache.K("suggestions", "list")
	KeySuggestionStats   = cache.K("suggestions", "stats")
	KeyProfile           = cache.K("profile", "company")
	KeyProfileCompletion = cache.K("profile", "completion")
	KeyDashboardStats    = cache.K("dashboard", "stats")
	KeyImportHistory     = cache.K("import", "history")
	KeyImportSummary     = cache.K("import", "summary")
	KeyAdminCompanies    = cache.K("admin", "companies")
	KeyAdminMetrics      = cache.K("admin", "metrics")
	KeyConversations     = cache.K("assistant", "conversations")
)

// KeyMessages is the per-conversation message list key.
func KeyMessages(conversationID string) cache.Key {
	return cache.K("assistant", "messages", conversationID)
}

// Cascade triggers. The edges encode real product relationships: completion
// is derived from profile fields, suggestion stats from the list, and an
// import sync touches productions, wastes and needs atomically server-side.
const (
	TriggerProfileUpdate    = "profile.update"
	TriggerAvatarChange     = "avatar.change"
	TriggerSuggestionAction = "suggestion.action"
	TriggerImportSync       = "import.sync"
)

// RegisterEdges installs the invalidation cascades on a cache.
func RegisterEdges(c *cache.Cache) {
	c.Link(TriggerProfileUpdate, KeyProfileCompletion)
	c.Link(TriggerAvatarChange, KeyProfileCompletion)
	c.Link(TriggerSuggestionAction, KeySuggestionsList, KeySuggestionStats)
	c.Link(TriggerImportSync, KeyDashboardStats, KeyProfile, KeyImportHistory, KeyImportSummary)
}
