package milk

import (
	"context"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/store"
	"gaughar-backend/internal/validation"
)

// DuplicateEntryMessage is the form-level error for a second record for the
// same cow and day.
const DuplicateEntryMessage = "Milk record already exists for this cow on selected date."

const foreignCowMessage = "Select one of your cows."

type Filter struct {
	From  *models.Date
	To    *models.Date
	CowID *uint
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	q = store.DateRange(q, "milk_records.date", f.From, f.To)
	if f.CowID != nil {
		q = q.Where("milk_records.cow_id = ?", *f.CowID)
	}
	return q
}

// Totals sums the records List returns for the same filter.
type Totals struct {
	TotalMorning decimal.Decimal `json:"total_morning"`
	TotalEvening decimal.Decimal `json:"total_evening"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	RecordCount  int64           `json:"record_count"`
}

type Repository struct {
	db       *gorm.DB
	validate *validation.Validator
	logger   *zap.Logger
}

func NewRepository(db *gorm.DB, validate *validation.Validator, logger *zap.Logger) *Repository {
	return &Repository{db: db, validate: validate, logger: logger}
}

// List returns the caller's milk records, newest day first and by cow tag
// within a day. Each record carries its cow.
func (r *Repository) List(ctx context.Context, userID string, f Filter) ([]models.MilkRecord, error) {
	q := r.db.WithContext(ctx).
		Joins("Cow").
		Where("milk_records.user_id = ?", userID)
	q = f.apply(q)

	records := make([]models.MilkRecord, 0)
	err := q.Order("milk_records.date DESC").
		Order(`"Cow"."tag_number" ASC`).
		Order("milk_records.id ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing milk records")
	}
	return records, nil
}

func (r *Repository) Totals(ctx context.Context, userID string, f Filter) (Totals, error) {
	var t Totals
	q := r.db.WithContext(ctx).
		Model(&models.MilkRecord{}).
		Where("milk_records.user_id = ?", userID)
	err := f.apply(q).
		Select(`COALESCE(SUM(milk_records.morning_quantity), 0) AS total_morning,
			COALESCE(SUM(milk_records.evening_quantity), 0) AS total_evening,
			COALESCE(SUM(milk_records.total_quantity), 0) AS grand_total,
			COUNT(*) AS record_count`).
		Scan(&t).Error
	if err != nil {
		return Totals{}, errors.Annotate(err, "totalling milk records")
	}
	t.TotalMorning = t.TotalMorning.Round(2)
	t.TotalEvening = t.TotalEvening.Round(2)
	t.GrandTotal = t.GrandTotal.Round(2)
	return t, nil
}

func (r *Repository) Get(ctx context.Context, userID string, id uint) (*models.MilkRecord, error) {
	var rec models.MilkRecord
	err := r.db.WithContext(ctx).
		Joins("Cow").
		Where("milk_records.user_id = ?", userID).
		First(&rec, "milk_records.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Annotatef(apperr.NotFound, "milk record %d", id)
	} else if err != nil {
		return nil, errors.Annotatef(err, "milk record %d", id)
	}
	return &rec, nil
}

// check runs the field rules and then, only if they pass, the rules that
// need the database: the cow must be the caller's and the day must be free.
func (r *Repository) check(ctx context.Context, tx *gorm.DB, userID string, rec *models.MilkRecord, exceptID uint) error {
	rec.UserID = userID
	rec.User = nil
	rec.Cow = nil
	if err := r.validate.Struct(rec); err != nil {
		return err
	}

	owner, err := store.Owner(ctx, tx, &models.Cow{}, rec.CowID)
	switch {
	case errors.Is(err, apperr.NotFound):
		return apperr.FieldError("cow_id", foreignCowMessage)
	case err != nil:
		return errors.Trace(err)
	case owner != userID:
		return apperr.FieldError("cow_id", foreignCowMessage)
	}

	var count int64
	q := store.Owned(tx.Model(&models.MilkRecord{}), userID).
		Where("cow_id = ? AND date = ?", rec.CowID, rec.Date)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return errors.Trace(err)
	}
	if count > 0 {
		return apperr.FormError(DuplicateEntryMessage)
	}

	rec.ComputeTotal()
	return nil
}

func (r *Repository) Create(ctx context.Context, userID string, rec *models.MilkRecord) (*models.MilkRecord, error) {
	rec.ID = 0
	rec.Version = 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.check(ctx, tx, userID, rec, 0); err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	r.logger.Debug("milk record created", zap.String("user_id", userID), zap.Uint("milk_record_id", rec.ID))
	return r.Get(ctx, userID, rec.ID)
}

func (r *Repository) Update(ctx context.Context, userID string, id uint, rec *models.MilkRecord) (*models.MilkRecord, error) {
	if err := store.CheckWrite(ctx, r.db, &models.MilkRecord{}, userID, id, rec.ID, rec.UserID); err != nil {
		return nil, errors.Annotatef(err, "milk record %d", id)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.check(ctx, tx, userID, rec, id); err != nil {
			return err
		}
		_, err := store.UpdateVersioned(ctx, tx, &models.MilkRecord{}, userID, id, rec.Version, map[string]any{
			"cow_id":           rec.CowID,
			"date":             rec.Date,
			"morning_quantity": rec.MorningQuantity,
			"evening_quantity": rec.EveningQuantity,
			"total_quantity":   rec.TotalQuantity,
			"remarks":          rec.Remarks,
		})
		return err
	})
	if err != nil {
		return nil, errors.Annotatef(classify(err), "milk record %d", id)
	}

	r.logger.Debug("milk record updated", zap.String("user_id", userID), zap.Uint("milk_record_id", id))
	return r.Get(ctx, userID, id)
}

func (r *Repository) Delete(ctx context.Context, userID string, id uint) (*models.MilkRecord, error) {
	rec, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteOwned(ctx, r.db, &models.MilkRecord{}, userID, id); err != nil {
		return nil, errors.Annotatef(err, "milk record %d", id)
	}
	r.logger.Debug("milk record deleted", zap.String("user_id", userID), zap.Uint("milk_record_id", id))
	return rec, nil
}

// classify maps the (cow, date) unique index to the same form error the
// pre-check produces; a concurrent insert can still slip between the two.
func classify(err error) error {
	switch {
	case store.IsDuplicate(err):
		return apperr.FormError(DuplicateEntryMessage)
	case store.IsForeignKey(err):
		return apperr.FieldError("cow_id", foreignCowMessage)
	default:
		return errors.Trace(err)
	}
}
