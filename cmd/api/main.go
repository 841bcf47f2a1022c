// @title ScreenBreak API
// @description Usage-limit enforcement backend for the ScreenBreak app
// @BasePath /api/v1
// @schemes http
package main

import (
	"log"

	"github.com/lowkey/screenbreak/internal/api"
	"github.com/lowkey/screenbreak/internal/engine"
	"github.com/lowkey/screenbreak/internal/repository"
	"github.com/lowkey/screenbreak/internal/service"
	"github.com/lowkey/screenbreak/pkg/cleanup"
	"github.com/lowkey/screenbreak/pkg/clock"
	"github.com/lowkey/screenbreak/pkg/config"
	jwtservice "github.com/lowkey/screenbreak/pkg/jwt_service"
)

func init() {
	service.InitValidator()
}

func main() {
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	conn := repository.NewPool(&dbCfg)

	usersRepo := repository.NewUsersRepo(conn)
	limitsRepo := repository.NewLimitsRepo(conn)
	progRepo := repository.NewProgressiveRepo(conn)
	violationsRepo := repository.NewViolationsRepo(conn)
	extensionsRepo := repository.NewExtensionsRepo(conn)
	usageRepo := repository.NewUsageRepo(conn)

	eng := engine.New()
	clk := clock.System()

	serv := api.New(&api.ServicesList{
		UserService:        service.NewUserService(usersRepo),
		LimitsService:      service.NewLimitsService(limitsRepo, usageRepo, eng, clk),
		EnforcementService: service.NewEnforcementService(limitsRepo, violationsRepo, extensionsRepo, usageRepo, usersRepo, eng, clk),
		ReductionService:   service.NewReductionService(progRepo, limitsRepo, usageRepo, eng, clk),
		JwtService:         jwtservice.New(cfg.GetString("JWT_SECRET")),
	})
	err := serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
	cleanup.CleanUp()
}
