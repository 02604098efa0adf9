package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/config"
	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Tokens     services.TokenService
	MetricsHub *services.MetricsHub
}

func NewServer(db *sqlx.DB, cfg config.Config, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		MetricsHub: hub,
	}
}

func (s *Server) limits() services.Limits {
	return services.Limits{Uploads: s.Config.UploadLimit, Votes: s.Config.VoteLimit}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.Register)
		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)

		api.Route("/photos", func(photos chi.Router) {
			photos.Get("/", s.ListPhotos)
			photos.Get("/{photoId}", s.PhotoDetail)
			photos.Group(func(auth chi.Router) {
				auth.Use(WithAuth(s.Tokens))
				auth.Post("/", s.UploadPhoto)
				auth.Post("/{photoId}/votes", s.VotePhoto)
			})
		})

		api.Route("/me", func(me chi.Router) {
			me.Use(WithAuth(s.Tokens))
			me.Get("/", s.Me)
			me.Put("/profile", s.UpdateProfile)
			me.Put("/password", s.ChangePassword)
			me.Get("/quota", s.Quota)
			me.Get("/photos", s.MyPhotos)
		})

		api.Route("/staff", func(staff chi.Router) {
			staff.Use(WithAuth(s.Tokens))
			staff.Use(RequireStaff)
			staff.Get("/photos", s.StaffAllPhotos)
			staff.Get("/photos/pending", s.StaffPendingPhotos)
			staff.Post("/photos/reset", s.StaffResetPhotos)
			staff.Post("/photos/{photoId}/approve", s.StaffApprovePhoto)
			staff.Delete("/photos/{photoId}", s.StaffRemovePhoto)
			staff.Get("/metrics/history", s.MetricsHistory)
			staff.Route("/users", func(users chi.Router) {
				users.Get("/", s.StaffListUsers)
				users.Post("/", s.StaffCreateUser)
				users.Put("/{userId}", s.StaffUpdateUser)
				users.Delete("/{userId}", s.StaffDeleteUser)
			})
		})

		api.Get("/media/assets/{assetId}/content", s.MediaContent)
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
