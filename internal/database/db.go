package database

import (
	"context"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gaughar-backend/internal/config"
	"gaughar-backend/internal/models"
)

// sqlitePragmas turn on foreign key enforcement, which SQLite leaves off by
// default, and wait on a locked database instead of failing at once.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open connects to the configured database. Constraint violations are
// translated into gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, errors.NotSupportedf("database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Annotatef(err, "connecting to %s", cfg.Driver)
	}

	if logger != nil {
		logger.Info("database connected", zap.String("driver", cfg.Driver))
	}
	return db, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// Migrate creates or updates every table. Parents are listed before the
// tables that reference them.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ExpenseCategory{},
		&models.Cow{},
		&models.MilkRecord{},
		&models.MilkSale{},
		&models.Expense{},
		&models.Vaccination{},
		&models.AuditLog{},
	)
	return errors.Annotate(err, "auto-migrating schema")
}

// DefaultCategories is the expense category seed, in display order.
var DefaultCategories = []models.ExpenseCategory{
	{Name: "Fodder", Description: "Animal feed and grass"},
	{Name: "Medicine", Description: "Veterinary medicines"},
	{Name: "Staff Salary", Description: "Employee wages"},
	{Name: "Electricity", Description: "Electricity bills"},
	{Name: "Water", Description: "Water bills"},
	{Name: "Maintenance", Description: "Repairs and maintenance"},
	{Name: "Transport", Description: "Transportation costs"},
	{Name: "Others", Description: "Miscellaneous expenses"},
}

// SeedCategories inserts each default category that does not exist yet,
// matched by name. Running it again changes nothing.
func SeedCategories(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range DefaultCategories {
			cat := models.ExpenseCategory{Name: def.Name}
			res := tx.Where(models.ExpenseCategory{Name: def.Name}).
				Attrs(models.ExpenseCategory{Description: def.Description}).
				FirstOrCreate(&cat)
			if res.Error != nil {
				return errors.Annotatef(res.Error, "seeding category %q", def.Name)
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Trace(err)
	}
	return created, nil
}
