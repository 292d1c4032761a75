package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/limbo/prayerbot/internal/api"
	"github.com/limbo/prayerbot/internal/notifier"
	"github.com/limbo/prayerbot/internal/repository"
	"github.com/limbo/prayerbot/internal/scheduler"
	"github.com/limbo/prayerbot/internal/service"
	cipherservice "github.com/limbo/prayerbot/pkg/cipher_service"
	"github.com/limbo/prayerbot/pkg/cleanup"
	"github.com/limbo/prayerbot/pkg/config"
	"github.com/limbo/prayerbot/pkg/dayclock"
)

func init() {
	service.InitValidator()
}

func main() {
	cfg := config.New()
	clk, err := dayclock.New(cfg.GetStringDefault("REFERENCE_TZ", "Asia/Singapore"))
	if err != nil {
		log.Fatal("reference timezone error: " + err.Error())
	}
	dbCfg := repository.PGCfg{
		Address:  cfg.MustGet("POSTGRES_DB_ADDRESS"),
		Username: cfg.MustGet("POSTGRES_USER"),
		Password: cfg.MustGet("POSTGRES_PASSWORD"),
		DB:       cfg.MustGet("POSTGRES_DB"),
	}
	cipher, err := cipherservice.New(cfg.MustGet("REVELATION_KEY"))
	if err != nil {
		log.Fatal("cipher init error: " + err.Error())
	}
	logger := slog.Default()
	sched := scheduler.New(clk, logger)
	cleanup.Register(&cleanup.Job{
		Name: "stopping scheduler",
		F: func() error {
			sched.Stop()
			return nil
		},
	})
	botService := service.NewBotService(
		repository.NewUsersRepo(&dbCfg),
		repository.NewRevelationsRepo(&dbCfg),
		cipher,
		sched,
		notifier.New(cfg.GetStringDefault("BOT_API_URL", "https://api.telegram.org"), cfg.MustGet("BOT_TOKEN")),
		clk,
		logger,
	)
	sched.SetHandler(botService)

	// Restart recovery: rebuild timer entries from persisted reminder times.
	if err := botService.RearmAll(context.Background()); err != nil {
		log.Fatal("re-arming reminders error: " + err.Error())
	}
	go rolloverLoop(clk, botService)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cleanup.CleanUp()
		os.Exit(0)
	}()

	serv := api.New(&api.Options{
		BotService:    botService,
		WebhookSecret: cfg.GetString("WEBHOOK_SECRET"),
	})
	err = serv.Run(cfg.GetStringDefault("API_ADDRESS", ":8080"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
	cleanup.CleanUp()
}

// rolloverLoop fires the day-rollover batch at every local midnight. Midnight
// sits safely before the earliest allowed reminder time, so reconciliation
// always precedes the day's nudges.
func rolloverLoop(clk *dayclock.Clock, botService service.BotServiceI) {
	for {
		time.Sleep(time.Until(clk.NextMidnight()))
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*5)
		botService.RolloverAll(ctx)
		cancel()
	}
}
