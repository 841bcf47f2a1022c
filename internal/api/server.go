package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lowkey/screenbreak/internal/service"
)

type Server struct {
	mx                 *chi.Mux
	userService        service.UserServiceI
	limitsService      service.LimitsServiceI
	enforcementService service.EnforcementServiceI
	reductionService   service.ReductionServiceI
	jwtService         JWTServiceI
}

type ServicesList struct {
	UserService        service.UserServiceI
	LimitsService      service.LimitsServiceI
	EnforcementService service.EnforcementServiceI
	ReductionService   service.ReductionServiceI
	JwtService         JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	return &Server{
		mx:                 chi.NewMux(),
		userService:        servicesOptions.UserService,
		limitsService:      servicesOptions.LimitsService,
		enforcementService: servicesOptions.EnforcementService,
		reductionService:   servicesOptions.ReductionService,
		jwtService:         servicesOptions.JwtService,
	}
}

func (s *Server) Run(address string) error {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)
			r.Get("/profile", s.GetProfile)
			r.Put("/profile", s.UpdateProfile)
			r.Post("/limits", s.CreateLimit)
			r.Get("/limits", s.ListLimits)
			r.Delete("/limits/{id}", s.DeactivateLimit)
			r.Post("/limits/validate", s.ValidateLimit)
			r.Post("/evaluate", s.Evaluate)
			r.Post("/extensions/request", s.RequestExtension)
			r.Get("/cooldowns/{package}", s.GetCooldown)
			r.Post("/usage/daily", s.RecordDailyUsage)
			r.Post("/progressive", s.CreateProgressiveLimit)
			r.Post("/progressive/sweep", s.RunSweep)
			r.Post("/progressive/recommend", s.Recommend)
			r.Get("/progressive/milestones/uncelebrated", s.UncelebratedMilestones)
			r.Post("/progressive/milestones/{id}/celebrate", s.CelebrateMilestone)
		})
	})
	return http.ListenAndServe(address, s.mx)
}
