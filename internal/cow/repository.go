package cow

import (
	"context"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/store"
	"gaughar-backend/internal/validation"
)

const duplicateTagMessage = "Tag number already exists."

type Filter struct {
	// Search matches tag number, name or breed.
	Search       string
	Status       models.CowStatus
	HealthStatus models.HealthStatus
	Pregnant     *bool
}

type Repository struct {
	db       *gorm.DB
	validate *validation.Validator
	logger   *zap.Logger
}

func NewRepository(db *gorm.DB, validate *validation.Validator, logger *zap.Logger) *Repository {
	return &Repository{db: db, validate: validate, logger: logger}
}

// List returns the caller's cows ordered by tag number.
func (r *Repository) List(ctx context.Context, userID string, f Filter) ([]models.Cow, error) {
	q := store.Owned(r.db.WithContext(ctx), userID)
	q = store.Contains(q, f.Search, "tag_number", "name", "breed")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.HealthStatus != "" {
		q = q.Where("health_status = ?", f.HealthStatus)
	}
	if f.Pregnant != nil {
		q = q.Where("is_pregnant = ?", *f.Pregnant)
	}

	cows := make([]models.Cow, 0)
	if err := q.Order("tag_number asc").Order("id asc").Find(&cows).Error; err != nil {
		return nil, errors.Annotate(err, "listing cows")
	}
	return cows, nil
}

// ActiveCows lists the cows a milk record can be entered for.
func (r *Repository) ActiveCows(ctx context.Context, userID string) ([]models.Cow, error) {
	return r.List(ctx, userID, Filter{Status: models.CowActive})
}

func (r *Repository) Get(ctx context.Context, userID string, id uint) (*models.Cow, error) {
	var cow models.Cow
	if err := store.Get(ctx, r.db, userID, id, &cow); err != nil {
		return nil, errors.Annotatef(err, "cow %d", id)
	}
	return &cow, nil
}

// prepare stamps ownership, applies defaults and derivations, and runs the
// field rules.
func (r *Repository) prepare(userID string, cow *models.Cow) error {
	cow.UserID = userID
	cow.User = nil
	cow.ApplyDefaults()
	if err := r.validate.Struct(cow); err != nil {
		return err
	}
	cow.DeriveExpectedDelivery()
	return nil
}

func tagTaken(tx *gorm.DB, userID, tag string, exceptID uint) (bool, error) {
	var count int64
	q := store.Owned(tx.Model(&models.Cow{}), userID).Where("tag_number = ?", tag)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, errors.Trace(err)
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, userID string, cow *models.Cow) (*models.Cow, error) {
	cow.ID = 0
	cow.Version = 1
	if err := r.prepare(userID, cow); err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := tagTaken(tx, userID, cow.TagNumber, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.FieldError("tag_number", duplicateTagMessage)
		}
		return tx.Create(cow).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	r.logger.Debug("cow created", zap.String("user_id", userID), zap.Uint("cow_id", cow.ID))
	return cow, nil
}

// Update replaces the editable fields of the cow with the given id. The
// body's version, if set, must match the stored one.
func (r *Repository) Update(ctx context.Context, userID string, id uint, cow *models.Cow) (*models.Cow, error) {
	if err := store.CheckWrite(ctx, r.db, &models.Cow{}, userID, id, cow.ID, cow.UserID); err != nil {
		return nil, errors.Annotatef(err, "cow %d", id)
	}
	if err := r.prepare(userID, cow); err != nil {
		return nil, err
	}

	values := map[string]any{
		"tag_number":             cow.TagNumber,
		"name":                   cow.Name,
		"breed":                  cow.Breed,
		"color":                  cow.Color,
		"date_of_birth":          cow.DateOfBirth,
		"purchase_date":          cow.PurchaseDate,
		"purchase_price":         cow.PurchasePrice,
		"health_status":          cow.HealthStatus,
		"status":                 cow.Status,
		"is_pregnant":            cow.IsPregnant,
		"pregnancy_date":         cow.PregnancyDate,
		"expected_delivery_date": cow.ExpectedDeliveryDate,
		"remarks":                cow.Remarks,
	}

	var updated models.Cow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := tagTaken(tx, userID, cow.TagNumber, id)
		if err != nil {
			return err
		}
		if taken {
			return apperr.FieldError("tag_number", duplicateTagMessage)
		}
		if _, err := store.UpdateVersioned(ctx, tx, &models.Cow{}, userID, id, cow.Version, values); err != nil {
			return err
		}
		return store.Get(ctx, tx, userID, id, &updated)
	})
	if err != nil {
		return nil, errors.Annotatef(classify(err), "cow %d", id)
	}

	r.logger.Debug("cow updated", zap.String("user_id", userID), zap.Uint("cow_id", id), zap.Uint("version", updated.Version))
	return &updated, nil
}

// Delete removes a cow that has no milk records or vaccinations.
func (r *Repository) Delete(ctx context.Context, userID string, id uint) (*models.Cow, error) {
	var cow models.Cow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := store.Get(ctx, tx, userID, id, &cow); err != nil {
			return err
		}
		for _, dep := range []any{&models.MilkRecord{}, &models.Vaccination{}} {
			var count int64
			if err := tx.Model(dep).Where("cow_id = ?", id).Count(&count).Error; err != nil {
				return errors.Trace(err)
			}
			if count > 0 {
				return apperr.DependencyRestricted
			}
		}
		return store.DeleteOwned(ctx, tx, &models.Cow{}, userID, id)
	})
	if err != nil {
		return nil, errors.Annotatef(classify(err), "cow %d", id)
	}

	r.logger.Debug("cow deleted", zap.String("user_id", userID), zap.Uint("cow_id", id))
	return &cow, nil
}

// classify turns storage constraint errors into application errors.
func classify(err error) error {
	switch {
	case store.IsDuplicate(err):
		return apperr.FieldError("tag_number", duplicateTagMessage)
	default:
		return errors.Trace(err)
	}
}
