// Package testing provides a gocheck suite backed by a fresh, migrated and
// seeded SQLite database per test.
package testing

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
	"gorm.io/gorm"

	"gaughar-backend/internal/config"
	"gaughar-backend/internal/database"
	"gaughar-backend/internal/models"
)

// DBSuite opens a new database file under the test's temporary directory.
type DBSuite struct {
	testing.IsolationSuite

	DB *gorm.DB
}

func (s *DBSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	path := filepath.Join(c.MkDir(), "gaughar-test.db")
	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    path,
	}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(database.Migrate(db), jc.ErrorIsNil)

	_, err = database.SeedCategories(context.Background(), db)
	c.Assert(err, jc.ErrorIsNil)

	s.DB = db
}

func (s *DBSuite) TearDownTest(c *gc.C) {
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		s.DB = nil
	}
	s.IsolationSuite.TearDownTest(c)
}

// AddUser inserts a user with a random id and returns the id.
func (s *DBSuite) AddUser(c *gc.C, email string) string {
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     email,
		PasswordHash: "x",
	}
	c.Assert(s.DB.Create(&user).Error, jc.ErrorIsNil)
	return user.ID
}

// AddCow inserts an active, healthy cow for userID directly, bypassing the
// repository.
func (s *DBSuite) AddCow(c *gc.C, userID, tag string) *models.Cow {
	cow := models.Cow{
		UserID:       userID,
		TagNumber:    tag,
		Name:         fmt.Sprintf("Cow %s", tag),
		Breed:        "Jersey",
		DateOfBirth:  models.DateOf(2020, time.January, 1),
		HealthStatus: models.HealthHealthy,
		Status:       models.CowActive,
	}
	c.Assert(s.DB.Create(&cow).Error, jc.ErrorIsNil)
	return &cow
}

// CategoryID returns the id of a seeded expense category.
func (s *DBSuite) CategoryID(c *gc.C, name string) uint {
	var cat models.ExpenseCategory
	c.Assert(s.DB.Where("name = ?", name).First(&cat).Error, jc.ErrorIsNil)
	return cat.ID
}
