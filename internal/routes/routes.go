package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/questlog-app/questlog-backend/internal/handlers"
	"github.com/questlog-app/questlog-backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes (do not require authentication)
	r.Post("/auth/signup", handlers.Signup)
	r.Post("/auth/login", handlers.Login)
	r.Post("/auth/refresh-token", handlers.RefreshToken)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/auth/check-token", handlers.CheckToken)
		r.Post("/auth/logout", handlers.Logout)

		r.Get("/users/{id}", handlers.GetUser)

		r.Route("/friendships", func(r chi.Router) {
			r.Post("/request", handlers.RequestFriendship)
			r.Put("/approve", handlers.ApproveFriendship)
			r.Delete("/remove", handlers.RemoveFriendship)
			r.Get("/user/{id}", handlers.GetUserFriendships)
		})

		r.Route("/quests", func(r chi.Router) {
			r.Get("/", handlers.GetQuests)
			r.Post("/", handlers.CreateQuest)
			r.Get("/{id}", handlers.GetQuest)
			r.Put("/{id}", handlers.UpdateQuest)
			r.Delete("/{id}", handlers.DeleteQuest)

			r.Post("/{id}/start", handlers.StartQuest)
			r.Post("/{id}/request", handlers.RequestJoinQuest)
			r.Delete("/{id}/request", handlers.DeleteJoinRequest)
			r.Post("/{id}/invite", handlers.InviteToQuest)
			r.Delete("/{id}/invite", handlers.DeclineInvite)
			r.Post("/{id}/approve-invite", handlers.ApproveInvite)
			r.Post("/{id}/approve-request", handlers.ApproveJoinRequest)
			r.Delete("/{id}/member", handlers.RemoveQuestMember)

			r.Get("/{id}/owner", handlers.GetQuestOwner)
			r.Get("/{id}/users", handlers.GetQuestUsers)
			r.Get("/{id}/messages", handlers.GetQuestMessages)
			r.Post("/{id}/messages", handlers.PostQuestMessage)
		})

		r.Get("/feeds/quests", handlers.GetQuestsFeed)
	})

	// WebSocket endpoint for realtime quest chat.
	// Authenticates via the Sec-WebSocket-Protocol token, not the middleware.
	r.Get("/ws/chat", handlers.ChatWebSocket)
}
