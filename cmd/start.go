package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"doubloon-tracker/core/loader"
	"doubloon-tracker/core/logger"
	"doubloon-tracker/core/middleware/auth"
	"doubloon-tracker/core/middleware/rayid"
	"doubloon-tracker/feature/auditlog"
	"doubloon-tracker/feature/discord"
	"doubloon-tracker/feature/leaderboard"
	"doubloon-tracker/feature/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "doubloon-tracker/docs/swagger"
)

// @title Doubloon Tracker API
// @version 1.0
// @description Admin API for the doubloon ledger and leaderboard.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bot and the admin server",
	Long: `Connects to Discord, starts the periodic leaderboard sync and serves the
admin HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 1. Configuration, logger, database, audit trail
		rt, err := bootstrap(ctx)
		if err != nil {
			log.Fatalf("Startup failed: %v", err)
		}
		defer rt.Close()
		logg := rt.logger
		zap.ReplaceGlobals(logg)

		// 2. Discord REST session, role reconciler and operator notifier
		session, err := rt.session()
		if err != nil {
			logg.Fatal("Failed to create discord session", zap.Error(err))
		}
		var (
			notifier   *discord.Notifier
			reconciler ledger.RankReconciler
		)
		if session != nil {
			notifier = discord.NewNotifier(session, rt.cfg.Discord.OperatorID)
			rec, err := rt.reconciler(session, notifier)
			if err != nil {
				logg.Fatal("Invalid tier role configuration", zap.Error(err))
			}
			reconciler = rec
		} else {
			logg.Warn("No discord token configured, running without the gateway")
		}

		// 3. Ledger
		engine, err := rt.engine(reconciler, notifier)
		if err != nil {
			logg.Fatal("Failed to build ledger", zap.Error(err))
		}
		if n, err := engine.RepairRanks(ctx); err != nil {
			logg.Warn("Rank repair failed", zap.Error(err))
		} else if n > 0 {
			logg.Info("Repaired stored ranks", zap.Int("users", n))
		}

		// 4. Leaderboard mirror
		var (
			lbService   *leaderboard.Service
			lbScheduler *leaderboard.Scheduler
		)
		if rt.cfg.Leaderboard.Enabled() {
			lbService, err = rt.leaderboardService(ctx)
			if err != nil {
				logg.Fatal("Failed to connect leaderboard backend", zap.Error(err))
			}
			lbService.WithNotifier(notifier)
			lbScheduler = leaderboard.NewScheduler(lbService,
				rt.cfg.Leaderboard.Interval(), rt.cfg.Leaderboard.Cooldown(),
				logger.ForComponent(logg, "leaderboard"), rt.trail)
			if err := lbScheduler.Start(ctx); err != nil {
				logg.Fatal("Failed to start leaderboard scheduler", zap.Error(err))
			}
			defer lbScheduler.Stop()
		}

		// 5. Discord gateway
		if session != nil {
			opts := discord.DispatcherOptions{
				Ledger: engine,
				Lookup: func(ctx context.Context, userID string) (string, error) {
					return discord.LookupUser(ctx, session, userID)
				},
				Admins:   rt.cfg.Discord.AdminIDs(),
				Link:     rt.cfg.Leaderboard.Link,
				Prefix:   rt.cfg.Discord.Prefix,
				Cooldown: rt.cfg.Leaderboard.Cooldown().String(),
			}
			if lbScheduler != nil {
				opts.Trigger = lbScheduler
			}
			dispatcher := discord.NewDispatcher(opts, logger.ForComponent(logg, "commands"), rt.trail)
			gateway := discord.NewGateway(session, session, rt.cfg.Discord, engine, dispatcher,
				logger.ForComponent(logg, "discord"), rt.trail)
			if err := gateway.Open(); err != nil {
				logg.Fatal("Failed to connect to discord", zap.Error(err))
			}
			defer gateway.Close()
		}

		// 6. Admin HTTP server
		var app *fiber.App
		if rt.cfg.Server.Enabled {
			app = newApp(rt, engine, lbService, lbScheduler)
			go func() {
				logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
				if err := app.Listen(rt.cfg.Server.Address()); err != nil {
					logg.Fatal("Server failed to start", zap.Error(err))
				}
			}()
		}

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		if app != nil {
			_ = app.Shutdown()
		}
		cancel()
	},
}

// newApp builds the admin HTTP server with every feature registered.
func newApp(rt *runtime, engine *ledger.Engine, lbService *leaderboard.Service, lbScheduler *leaderboard.Scheduler) *fiber.App {
	logg := rt.logger
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// A handler panic must not take the bot down with it.
	app.Use(recover.New())
	// RayID next so every log line can be traced.
	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Get("/swagger/*", swagger.HandlerDefault)
	if !rt.cfg.Server.IsProtected() {
		logg.Warn("Admin API has no api key, every request is accepted")
	}
	app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

	mgr := loader.NewManager()
	mgr.Register(ledger.NewFeature(engine, logg))
	mgr.Register(leaderboard.NewFeature(lbService, lbScheduler, logg))
	mgr.Register(auditlog.NewFeature(rt.trail, logg))
	if err := mgr.LoadAll(app); err != nil {
		logg.Fatal("Failed to load features", zap.Error(err))
	}
	for _, f := range mgr.Features() {
		logg.Debug("Feature registered", zap.String("feature", f.Name()), zap.Bool("enabled", f.IsEnabled()))
	}
	return app
}

func init() {
	RootCmd.AddCommand(startCmd)
}

