package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gaughar-backend/internal/audit"
	"gaughar-backend/internal/auth"
	"gaughar-backend/internal/config"
	"gaughar-backend/internal/cow"
	"gaughar-backend/internal/dashboard"
	"gaughar-backend/internal/database"
	"gaughar-backend/internal/expense"
	"gaughar-backend/internal/logger"
	"gaughar-backend/internal/metrics"
	"gaughar-backend/internal/milk"
	"gaughar-backend/internal/report"
	"gaughar-backend/internal/sales"
	"gaughar-backend/internal/vaccination"
	"gaughar-backend/internal/validation"
	"gaughar-backend/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	envFile := pflag.String("env-file", "", "path to a .env file")
	migrateOnly := pflag.Bool("migrate-only", false, "migrate and seed the database, then exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return errors.Annotate(err, "loading config")
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return errors.Annotate(err, "creating logger")
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.Database, logger.Named(log, "database"))
	if err != nil {
		return errors.Trace(err)
	}
	if err := database.Migrate(db); err != nil {
		return errors.Trace(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeded, err := database.SeedCategories(ctx, db)
	if err != nil {
		return errors.Trace(err)
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver), zap.Int("categories_seeded", seeded))
	if *migrateOnly {
		return nil
	}

	app := newApp(cfg, db, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.HTTPPort))
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return errors.Annotate(err, "serving HTTP")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return errors.Annotate(err, "shutting down")
	}
	return nil
}

func newApp(cfg *config.Config, db *gorm.DB, log *zap.Logger) *fiber.App {
	loc := cfg.Location()
	validate := validation.New()
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	auditSvc := audit.NewService(db, logger.Named(log, "audit"))
	reports := report.NewEngine(db, logger.Named(log, "report"))
	authHandlers := auth.NewHandlers(db, issuer, logger.Named(log, "auth"))
	cows := cow.NewRepository(db, validate, logger.Named(log, "cow"))
	milkRecords := milk.NewRepository(db, validate, logger.Named(log, "milk"))
	milkSales := sales.NewRepository(db, validate, logger.Named(log, "sales"))
	expenses := expense.NewRepository(db, validate, logger.Named(log, "expense"))
	vaccinations := vaccination.NewRepository(db, validate, logger.Named(log, "vaccination"))

	collector := metrics.NewCollector()
	registry := metrics.NewRegistry(collector)

	app := fiber.New(fiber.Config{
		ErrorHandler: web.ErrorHandler(logger.Named(log, "http")),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(collector.Middleware())
	app.Use(web.RequestLogger(logger.Named(log, "http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler(registry))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", authHandlers.Register())
	api.Post("/auth/login", authHandlers.Login())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(issuer))

	protected.Get("/auth/me", authHandlers.Me())

	// Cows
	protected.Get("/cows", cow.ListCowsHandler(cows, loc))
	protected.Get("/cows/statistics", cow.StatisticsHandler(reports))
	protected.Get("/cows/active", cow.ListActiveCowsHandler(cows))
	protected.Post("/cows", cow.CreateCowHandler(cows, auditSvc, loc))
	protected.Get("/cows/:id", cow.GetCowHandler(cows, loc))
	protected.Get("/cows/:id/performance", cow.PerformanceHandler(reports, loc))
	protected.Put("/cows/:id", cow.UpdateCowHandler(cows, auditSvc, loc))
	protected.Delete("/cows/:id", cow.DeleteCowHandler(cows, auditSvc))

	// Milk records
	protected.Get("/milk-records", milk.ListMilkRecordsHandler(milkRecords))
	protected.Get("/milk-records/daily-summary", milk.DailySummaryHandler(reports, loc))
	protected.Get("/milk-records/monthly-report", milk.MonthlyReportHandler(reports, loc))
	protected.Post("/milk-records", milk.CreateMilkRecordHandler(milkRecords, auditSvc))
	protected.Get("/milk-records/:id", milk.GetMilkRecordHandler(milkRecords))
	protected.Put("/milk-records/:id", milk.UpdateMilkRecordHandler(milkRecords, auditSvc))
	protected.Delete("/milk-records/:id", milk.DeleteMilkRecordHandler(milkRecords, auditSvc))

	// Milk sales
	protected.Get("/milk-sales", sales.ListMilkSalesHandler(milkSales))
	protected.Get("/milk-sales/summary", sales.MonthlySummaryHandler(reports, loc))
	protected.Post("/milk-sales", sales.CreateMilkSaleHandler(milkSales, auditSvc))
	protected.Get("/milk-sales/:id", sales.GetMilkSaleHandler(milkSales))
	protected.Put("/milk-sales/:id", sales.UpdateMilkSaleHandler(milkSales, auditSvc))
	protected.Delete("/milk-sales/:id", sales.DeleteMilkSaleHandler(milkSales, auditSvc))

	// Expenses
	protected.Get("/expense-categories", expense.ListCategoriesHandler(expenses))
	protected.Get("/expenses", expense.ListExpensesHandler(expenses))
	protected.Get("/expenses/summary", expense.MonthlySummaryHandler(reports, loc))
	protected.Post("/expenses", expense.CreateExpenseHandler(expenses, auditSvc))
	protected.Get("/expenses/:id", expense.GetExpenseHandler(expenses))
	protected.Put("/expenses/:id", expense.UpdateExpenseHandler(expenses, auditSvc))
	protected.Delete("/expenses/:id", expense.DeleteExpenseHandler(expenses, auditSvc))

	// Vaccinations
	protected.Get("/vaccinations", vaccination.ListVaccinationsHandler(vaccinations))
	protected.Post("/vaccinations", vaccination.CreateVaccinationHandler(vaccinations, auditSvc))
	protected.Get("/vaccinations/:id", vaccination.GetVaccinationHandler(vaccinations))
	protected.Put("/vaccinations/:id", vaccination.UpdateVaccinationHandler(vaccinations, auditSvc))
	protected.Delete("/vaccinations/:id", vaccination.DeleteVaccinationHandler(vaccinations, auditSvc))

	// Dashboard
	protected.Get("/dashboard", dashboard.DashboardHandler(reports, loc))
	protected.Get("/dashboard/profit-loss", dashboard.ProfitLossHandler(reports, loc))
	protected.Get("/dashboard/yearly", dashboard.YearlyReportHandler(reports, loc))
	protected.Get("/dashboard/export", dashboard.ExportMonthHandler(reports, loc))

	// Audit
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(auditSvc))

	return app
}
