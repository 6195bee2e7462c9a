package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/club-ladder/ladder-backend/internal/api/handlers"
	"github.com/club-ladder/ladder-backend/internal/api/middleware"
	"github.com/club-ladder/ladder-backend/internal/config"
	"github.com/club-ladder/ladder-backend/internal/repository"
	"github.com/club-ladder/ladder-backend/internal/service"
	"github.com/club-ladder/ladder-backend/pkg/database"
	"github.com/club-ladder/ladder-backend/pkg/distributed"
)

// SetupRouter API 라우터 설정
// redisClient may be nil; recalculations then run without the advisory lock.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Repository 초기화
	playerRepo := repository.NewPlayerRepository(db)
	seasonRepo := repository.NewSeasonRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	playerSeasonRepo := repository.NewPlayerSeasonRepository(db)
	historyRepo := repository.NewELOHistoryRepository(db)
	configRepo := repository.NewRatingConfigRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// 재계산 직렬화 락 (Redis 미설정 시 생략)
	var lockMgr *distributed.RecalcLockManager
	if redisClient != nil {
		lockMgr = distributed.NewRecalcLockManager(redisClient, cfg.RecalcLockTTL)
	}

	// Service 초기화
	eloService := service.NewELOService()
	recalcService := service.NewRecalcService(db, eloService,
		seasonRepo, matchRepo, playerRepo, playerSeasonRepo, historyRepo, configRepo, lockMgr)
	seasonService := service.NewSeasonService(db,
		seasonRepo, matchRepo, playerRepo, playerSeasonRepo, historyRepo, configRepo, recalcService)
	matchService := service.NewMatchService(db, eloService,
		seasonRepo, matchRepo, playerRepo, playerSeasonRepo, historyRepo, recalcService)
	configService := service.NewRatingConfigService(configRepo)
	playerService := service.NewPlayerService(playerRepo, historyRepo)
	jobService := service.NewJobService(jobRepo)

	// Handler 초기화
	seasonHandler := handlers.NewSeasonHandler(seasonService, recalcService, jobService)
	matchHandler := handlers.NewMatchHandler(matchService)
	configHandler := handlers.NewELOConfigHandler(configService, recalcService, jobService)
	jobHandler := handlers.NewJobHandler(jobService)
	playerHandler := handlers.NewPlayerHandler(playerService)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	auth := middleware.Auth(cfg)
	admin := middleware.RequireAdmin()

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Season routes
		seasons := v1.Group("/seasons")
		{
			seasons.GET("", seasonHandler.ListSeasons)
			seasons.GET("/active", seasonHandler.GetActiveSeason)
			seasons.GET("/:id", seasonHandler.GetSeason)
			seasons.GET("/:id/players", seasonHandler.ListSeasonPlayers)
			seasons.GET("/:id/leaderboard", seasonHandler.GetLeaderboard)

			seasons.POST("", auth, admin, seasonHandler.CreateSeason)
			seasons.DELETE("/:id", auth, admin, seasonHandler.DeleteSeason)
			seasons.PUT("/:id/activate", auth, admin, seasonHandler.ActivateSeason)
			seasons.PUT("/:id/elo-version", auth, admin, seasonHandler.SetELOVersion)
			seasons.POST("/:id/recalculate", auth, admin, seasonHandler.RecalculateSeason)
			seasons.POST("/reassign", auth, admin, seasonHandler.ReassignEvents)
			seasons.POST("/:id/players/:playerId", auth, admin, seasonHandler.AddSeasonPlayer)
			seasons.DELETE("/:id/players/:playerId", auth, admin, seasonHandler.RemoveSeasonPlayer)
		}

		// Match routes
		matches := v1.Group("/matches")
		{
			matches.GET("", matchHandler.ListMatches)
			matches.GET("/:id", matchHandler.GetMatch)
			matches.POST("", auth, matchHandler.RecordMatch)
			matches.DELETE("/:id", auth, admin, matchHandler.DeleteMatch)
		}

		// Rating configuration routes
		configs := v1.Group("/elo-configs")
		{
			configs.GET("", configHandler.ListConfigs)
			configs.GET("/:version", configHandler.GetConfig)
			configs.POST("", auth, admin, configHandler.CreateConfig)
			configs.PUT("/:version", auth, admin, configHandler.UpdateConfig)
			configs.DELETE("/:version", auth, admin, configHandler.DeleteConfig)
			configs.PUT("/:version/activate", auth, admin, configHandler.ActivateConfig)
			configs.POST("/recalculate-all", auth, admin, configHandler.RecalculateAll)
		}

		// Player routes
		players := v1.Group("/players")
		{
			players.GET("", playerHandler.ListPlayers)
			players.GET("/:id", playerHandler.GetPlayer)
			players.GET("/:id/elo-history", playerHandler.GetRatingHistory)
		}

		// Job routes
		v1.GET("/jobs/:id", jobHandler.GetJob)
	}

	return router
}
