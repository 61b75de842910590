package vaccination

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

const foreignCowMessage = "Select one of your cows."

type Filter struct {
	CowID *uint
	From  *models.Date
	To    *models.Date
	// DueBefore keeps vaccinations whose next due date is on or before it.
	DueBefore *models.Date
}

type Repository struct {
	db       *gorm.DB
	validate *validation.Validator
	logger   *zap.Logger
}

func NewRepository(db *gorm.DB, validate *validation.Validator, logger *zap.Logger) *Repository {
	return &Repository{db: db, validate: validate, logger: logger}
}

func (r *Repository) List(ctx context.Context, userID string, f Filter) ([]models.Vaccination, error) {
	q := r.db.WithContext(ctx).
		Joins("Cow").
		Where("vaccinations.user_id = ?", userID)
	q = store.DateRange(q, "vaccinations.vaccination_date", f.From, f.To)
	if f.CowID != nil {
		q = q.Where("vaccinations.cow_id = ?", *f.CowID)
	}
	if f.DueBefore != nil {
		q = q.Where("vaccinations.next_due_date IS NOT NULL AND vaccinations.next_due_date <= ?", *f.DueBefore)
	}

	out := make([]models.Vaccination, 0)
	err := q.Order("vaccinations.vaccination_date DESC").Order("vaccinations.id DESC").Find(&out).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing vaccinations")
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, userID string, id uint) (*models.Vaccination, error) {
	var v models.Vaccination
	err := r.db.WithContext(ctx).
		Joins("Cow").
		Where("vaccinations.user_id = ?", userID).
		First(&v, "vaccinations.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Annotatef(apperr.NotFound, "vaccination %d", id)
	} else if err != nil {
		return nil, errors.Annotatef(err, "vaccination %d", id)
	}
	return &v, nil
}

func (r *Repository) check(ctx context.Context, tx *gorm.DB, userID string, v *models.Vaccination) error {
	v.UserID = userID
	v.User = nil
	v.Cow = nil
	if err := r.validate.Struct(v); err != nil {
		return err
	}

	verr := apperr.NewValidationError()
	owner, err := store.Owner(ctx, tx, &models.Cow{}, v.CowID)
	switch {
	case errors.Is(err, apperr.NotFound):
		verr.AddField("cow_id", foreignCowMessage)
	case err != nil:
		return errors.Trace(err)
	case owner != userID:
		verr.AddField("cow_id", foreignCowMessage)
	}
	validation.DateNotBefore(verr, "next_due_date", v.NextDueDate, v.VaccinationDate, "vaccination date")
	return verr.OrNil()
}

func (r *Repository) Create(ctx context.Context, userID string, v *models.Vaccination) (*models.Vaccination, error) {
	v.ID = 0
	v.Version = 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.check(ctx, tx, userID, v); err != nil {
			return err
		}
		return tx.Create(v).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	r.logger.Debug("vaccination created", zap.String("user_id", userID), zap.Uint("vaccination_id", v.ID))
	return r.Get(ctx, userID, v.ID)
}

func (r *Repository) Update(ctx context.Context, userID string, id uint, v *models.Vaccination) (*models.Vaccination, error) {
	if err := store.CheckWrite(ctx, r.db, &models.Vaccination{}, userID, id, v.ID, v.UserID); err != nil {
		return nil, errors.Annotatef(err, "vaccination %d", id)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.check(ctx, tx, userID, v); err != nil {
			return err
		}
		_, err := store.UpdateVersioned(ctx, tx, &models.Vaccination{}, userID, id, v.Version, map[string]any{
			"cow_id":           v.CowID,
			"vaccine_name":     v.VaccineName,
			"vaccination_date": v.VaccinationDate,
			"next_due_date":    v.NextDueDate,
			"remarks":          v.Remarks,
		})
		return err
	})
	if err != nil {
		return nil, errors.Annotatef(classify(err), "vaccination %d", id)
	}
	r.logger.Debug("vaccination updated", zap.String("user_id", userID), zap.Uint("vaccination_id", id))
	return r.Get(ctx, userID, id)
}

func (r *Repository) Delete(ctx context.Context, userID string, id uint) (*models.Vaccination, error) {
	v, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteOwned(ctx, r.db, &models.Vaccination{}, userID, id); err != nil {
		return nil, errors.Annotatef(err, "vaccination %d", id)
	}
	r.logger.Debug("vaccination deleted", zap.String("user_id", userID), zap.Uint("vaccination_id", id))
	return v, nil
}

func classify(err error) error {
	if store.IsForeignKey(err) {
		return apperr.FieldError("cow_id", foreignCowMessage)
	}
	return errors.Trace(err)
}
