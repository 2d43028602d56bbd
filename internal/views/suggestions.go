package views

import (
	"context"
	"net/http"

	"github.com/circulab/marketplace-go/internal/model"
	"github.com/circulab/marketplace-go/internal/mutation"
	"github.com/circulab/marketplace-go/internal/normalize"
)

// SuggestionsView composes the suggestion directory: the cached list and
// stats, plus the optimistic ignore/save/contact actions.
type SuggestionsView struct {
	deps *Deps

	ignore  *mutation.Optimistic[string, []model.Suggestion]
	save    *mutation.Optimistic[string, []model.Suggestion]
	contact *mutation.Optimistic[string, []model.Suggestion]
}

// NewSuggestionsView creates the suggestions view.
func NewSuggestionsView(deps *Deps) *SuggestionsView {
	v := &SuggestionsView{deps: deps}

	v.ignore = v.action("ignore", "Suggestion ignorée",
		func(list []model.Suggestion, id string) []model.Suggestion {
			// An ignored suggestion disappears from the list immediately.
			out := make([]model.Suggestion, 0, len(list))
			for _, s := range list {
				if s.ID != id {
					out = append(out, s)
				}
			}
			return out
		})
	v.save = v.action("save", "Suggestion sauvegardée",
		statusPredictor(model.SuggestionSaved))
	v.contact = v.action("contact", "Demande de contact envoyée",
		statusPredictor(model.SuggestionContacted))

	return v
}

func statusPredictor(status model.SuggestionStatus) func([]model.Suggestion, string) []model.Suggestion {
	return func(list []model.Suggestion, id string) []model.Suggestion {
		out := make([]model.Suggestion, len(list))
		copy(out, list)
		for i := range out {
			if out[i].ID == id {
				out[i].Status = status
			}
		}
		return out
	}
}

func (v *SuggestionsView) action(verb, successMsg string, predict func([]model.Suggestion, string) []model.Suggestion) *mutation.Optimistic[string, []model.Suggestion] {
	return &mutation.Optimistic[string, []model.Suggestion]{
		Cache:   v.deps.Cache,
		Key:     KeySuggestionsList,
		Predict: predict,
		Call: func(ctx context.Context, id string) ([]byte, error) {
			return v.deps.API.Do(ctx, http.MethodPost, "/suggestions/"+id+"/"+verb, nil)
		},
		Notify:         v.deps.notifier(),
		SuccessMessage: successMsg,
		CascadeTrigger: TriggerSuggestionAction,
	}
}

// List returns the suggestion list, served from cache when fresh.
func (v *SuggestionsView) List(ctx context.Context) ([]model.Suggestion, error) {
	return query(ctx, v.deps, KeySuggestionsList, "/suggestions", normalize.Suggestions)
}

// Stats returns the suggestion pipeline stats.
func (v *SuggestionsView) Stats(ctx context.Context) (model.SuggestionStats, error) {
	return query(ctx, v.deps, KeySuggestionStats, "/suggestions/stats", normalize.SuggestionStats)
}

// Ignore optimistically removes the suggestion from the cached list and tells
// the backend. On failure the list is restored to its exact prior state.
func (v *SuggestionsView) Ignore(ctx context.Context, id string) error {
	return v.deps.handleAuthError(v.ignore.Run(ctx, id))
}

// Save optimistically marks the suggestion saved.
func (v *SuggestionsView) Save(ctx context.Context, id string) error {
	return v.deps.handleAuthError(v.save.Run(ctx, id))
}

// Contact optimistically marks the suggestion contacted.
func (v *SuggestionsView) Contact(ctx context.Context, id string) error {
	return v.deps.handleAuthError(v.contact.Run(ctx, id))
}
