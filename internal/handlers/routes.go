package handlers

import (
	"net/http"

	"tinysteps/internal/metrics"
	"tinysteps/internal/models"
)

// Router groups the handlers served by the API
type Router struct {
	Middleware  *Middleware
	Auth        *AuthHandler
	Students    *StudentHandler
	Activities  *ActivityHandler
	Suggestions *SuggestionHandler
	Stories     *StoryHandler
	AI          *AIHandler
	Health      *HealthHandler
	Metrics     *metrics.Metrics
}

// Mux registers every route on a new ServeMux
func (rt *Router) Mux() *http.ServeMux {
	mw := rt.Middleware
	auth := mw.RequireAuth
	mux := http.NewServeMux()

	// Probes and metrics
	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("GET /health/live", rt.Health.Live)
	mux.HandleFunc("GET /health/ready", rt.Health.Ready)
	mux.Handle("GET /metrics", rt.Metrics.Handler())

	// Accounts
	mux.HandleFunc("POST /api/users/register", mw.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /api/users/login", mw.RateLimit(rt.Auth.Login))
	mux.HandleFunc("POST /api/users/forgot-password", mw.RateLimit(rt.Auth.ForgotPassword))
	mux.HandleFunc("POST /api/users/reset-password/{token}", mw.RateLimit(rt.Auth.ResetPassword))
	mux.HandleFunc("GET /api/users/me", auth(rt.Auth.Me))
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)

	// Sample preview
	mux.HandleFunc("GET /api/samples", rt.Students.ListSamples)
	mux.HandleFunc("GET /api/samples/{id}", rt.Students.GetSample)

	// Students
	mux.HandleFunc("GET /api/students", auth(rt.Students.List))
	mux.HandleFunc("POST /api/students", auth(rt.Students.Create))
	mux.HandleFunc("GET /api/students/{id}", auth(rt.Students.Get))
	mux.HandleFunc("PUT /api/students/{id}", auth(rt.Students.Update))
	mux.HandleFunc("DELETE /api/students/{id}", auth(rt.Students.Delete))

	// Activity collections
	collections := map[string]models.Collection{
		"saved-activities":     models.CollectionSaved,
		"discarded-activities": models.CollectionDiscarded,
		"activity-history":     models.CollectionHistory,
	}
	for path, collection := range collections {
		base := "/api/students/{id}/" + path
		mux.HandleFunc("GET "+base, auth(rt.Activities.List(collection)))
		mux.HandleFunc("POST "+base, auth(rt.Activities.Add(collection)))
		mux.HandleFunc("DELETE "+base+"/{activityID}", auth(rt.Activities.Delete(collection)))
	}
	mux.HandleFunc("GET /api/students/{id}/saved-activities/compare", auth(rt.Activities.Compare))
	mux.HandleFunc("POST /api/students/{id}/discarded-activities/{activityID}/restore", auth(rt.Activities.Restore))
	mux.HandleFunc("POST /api/students/{id}/past-activities", auth(rt.Activities.AddPastActivity))

	// Stories
	mux.HandleFunc("GET /api/students/{id}/stories", auth(rt.Stories.List))
	mux.HandleFunc("POST /api/students/{id}/stories", auth(rt.Stories.Save))
	mux.HandleFunc("DELETE /api/students/{id}/stories/{storyID}", auth(rt.Stories.Delete))

	// Suggestion carousel
	mux.HandleFunc("GET /api/students/{id}/suggestions", auth(rt.Suggestions.View))
	mux.HandleFunc("POST /api/students/{id}/suggestions", auth(rt.Suggestions.Generate))
	mux.HandleFunc("DELETE /api/students/{id}/suggestions", auth(rt.Suggestions.Reset))
	mux.HandleFunc("POST /api/students/{id}/suggestions/next", auth(rt.Suggestions.Next))
	mux.HandleFunc("POST /api/students/{id}/suggestions/previous", auth(rt.Suggestions.Previous))
	mux.HandleFunc("POST /api/students/{id}/suggestions/save", auth(rt.Suggestions.Save))
	mux.HandleFunc("POST /api/students/{id}/suggestions/discard", auth(rt.Suggestions.Discard))

	// One-shot generation
	mux.HandleFunc("POST /api/ai/generate", mw.RateLimit(rt.AI.Generate))
	mux.HandleFunc("POST /api/ai/generate-story", mw.RateLimit(rt.AI.GenerateStory))

	return mux
}
