package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
	postssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/posts"
	userssvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/users"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService   *authsvc.Service
	UserService   *userssvc.Service
	PostService   *postssvc.Service
	MaxUploadSize int64
	Logger        *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	usersHandler := handlers.NewUsersHandler(deps.UserService)
	postsHandler := handlers.NewPostsHandler(deps.PostService, deps.MaxUploadSize, deps.Logger)
	healthHandler := handlers.NewHealthHandler()
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	superuserMW := RequireSuperuser()

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/jwt/login", authHandler.Login)
		r.Post("/jwt/refresh", authHandler.Refresh)
		r.With(authMW).Post("/jwt/logout", authHandler.Logout)
		r.With(authMW).Post("/jwt/logout_all", authHandler.LogoutAll)
		r.Post("/register", authHandler.Register)
		r.Post("/request-verify-token", authHandler.RequestVerifyToken)
		r.Post("/verify", authHandler.Verify)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/me", usersHandler.Me)
		r.Patch("/me", usersHandler.UpdateMe)
		r.With(superuserMW).Get("/", usersHandler.List)
		r.With(superuserMW).Get("/{id}", usersHandler.Get)
		r.With(superuserMW).Patch("/{id}", usersHandler.Update)
		r.With(superuserMW).Delete("/{id}", usersHandler.Delete)
	})

	r.With(authMW).Post("/upload", postsHandler.Upload)
	r.With(authMW).Get("/feed", postsHandler.Feed)
	r.With(authMW).Delete("/posts/{post_id}", postsHandler.Delete)
}
