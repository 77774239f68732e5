package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/cppla/diceraja/config"
	"github.com/cppla/diceraja/jobs"
	"github.com/cppla/diceraja/models"
	"github.com/cppla/diceraja/rewards"
	"github.com/cppla/diceraja/routes"
	"github.com/cppla/diceraja/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(&models.User{}, &models.Gamer{}, &models.DailyReward{}, &models.RewardHistory{})

	table, err := rewards.NewTable(cfg.RewardTable)
	if err != nil {
		utils.Sugar.Fatalf("reward table: %v", err)
	}
	engine := rewards.NewEngine(rewards.NewGormStore(db), rewards.Config{
		Table:    table,
		Location: cfg.Location(),
		Timeout:  cfg.StoreTimeout(),
		Logger:   utils.Logger.Named("rewards"),
	})

	sched, err := jobs.StartGamerExpiry(db, time.Duration(cfg.GamerExpirySweepMin)*time.Minute, utils.Logger.Named("jobs"))
	if err != nil {
		utils.Sugar.Fatalf("start gamer expiry job: %v", err)
	}

	r := routes.SetupRouter(db, cfg, engine)

	utils.Logger.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.Ints("reward_table", engine.Table()),
		zap.String("reward_timezone", cfg.Location().String()),
	)
	if err := utils.GraceServer(":"+cfg.AppPort, r, func() { _ = sched.Shutdown() }); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
