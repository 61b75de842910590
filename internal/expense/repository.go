package expense

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

const unknownCategoryMessage = "Select a valid expense category."

type Filter struct {
	From       *models.Date
	To         *models.Date
	CategoryID *uint
	// Search matches the description.
	Search string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	q = store.DateRange(q, "expenses.expense_date", f.From, f.To)
	q = store.Contains(q, f.Search, "expenses.description")
	if f.CategoryID != nil {
		q = q.Where("expenses.expense_category_id = ?", *f.CategoryID)
	}
	return q
}

// Totals sums the expenses List returns for the same filter.
type Totals struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AverageExpense decimal.Decimal `json:"average_expense"`
	ExpenseCount   int64           `json:"expense_count"`
}

type Repository struct {
	db       *gorm.DB
	validate *validation.Validator
	logger   *zap.Logger
}

func NewRepository(db *gorm.DB, validate *validation.Validator, logger *zap.Logger) *Repository {
	return &Repository{db: db, validate: validate, logger: logger}
}

// Categories lists the shared expense categories in seed order.
func (r *Repository) Categories(ctx context.Context) ([]models.ExpenseCategory, error) {
	cats := make([]models.ExpenseCategory, 0)
	if err := r.db.WithContext(ctx).Order("id asc").Find(&cats).Error; err != nil {
		return nil, errors.Annotate(err, "listing expense categories")
	}
	return cats, nil
}

func (r *Repository) List(ctx context.Context, userID string, f Filter) ([]models.Expense, error) {
	q := r.db.WithContext(ctx).
		Joins("ExpenseCategory").
		Where("expenses.user_id = ?", userID)
	q = f.apply(q)

	out := make([]models.Expense, 0)
	err := q.Order("expenses.expense_date DESC").Order("expenses.id DESC").Find(&out).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing expenses")
	}
	return out, nil
}

func (r *Repository) Totals(ctx context.Context, userID string, f Filter) (Totals, error) {
	var t Totals
	q := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("expenses.user_id = ?", userID)
	err := f.apply(q).
		Select("COALESCE(SUM(expenses.amount), 0) AS total_amount, COUNT(*) AS expense_count").
		Scan(&t).Error
	if err != nil {
		return Totals{}, errors.Annotate(err, "totalling expenses")
	}
	t.TotalAmount = t.TotalAmount.Round(2)
	if t.ExpenseCount > 0 {
		t.AverageExpense = t.TotalAmount.DivRound(decimal.NewFromInt(t.ExpenseCount), 2)
	}
	return t, nil
}

func (r *Repository) Get(ctx context.Context, userID string, id uint) (*models.Expense, error) {
	var exp models.Expense
	err := r.db.WithContext(ctx).
		Joins("ExpenseCategory").
		Where("expenses.user_id = ?", userID).
		First(&exp, "expenses.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Annotatef(apperr.NotFound, "expense %d", id)
	} else if err != nil {
		return nil, errors.Annotatef(err, "expense %d", id)
	}
	return &exp, nil
}

func (r *Repository) check(tx *gorm.DB, userID string, exp *models.Expense) error {
	exp.UserID = userID
	exp.User = nil
	exp.ExpenseCategory = nil
	if err := r.validate.Struct(exp); err != nil {
		return err
	}

	var count int64
	if err := tx.Model(&models.ExpenseCategory{}).Where("id = ?", exp.ExpenseCategoryID).Count(&count).Error; err != nil {
		return errors.Trace(err)
	}
	if count == 0 {
		return apperr.FieldError("expense_category_id", unknownCategoryMessage)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, userID string, exp *models.Expense) (*models.Expense, error) {
	exp.ID = 0
	exp.Version = 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.check(tx, userID, exp); err != nil {
			return err
		}
		return tx.Create(exp).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	r.logger.Debug("expense created", zap.String("user_id", userID), zap.Uint("expense_id", exp.ID))
	return r.Get(ctx, userID, exp.ID)
}

func (r *Repository) Update(ctx context.Context, userID string, id uint, exp *models.Expense) (*models.Expense, error) {
	if err := store.CheckWrite(ctx, r.db, &models.Expense{}, userID, id, exp.ID, exp.UserID); err != nil {
		return nil, errors.Annotatef(err, "expense %d", id)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.check(tx, userID, exp); err != nil {
			return err
		}
		_, err := store.UpdateVersioned(ctx, tx, &models.Expense{}, userID, id, exp.Version, map[string]any{
			"expense_date":        exp.ExpenseDate,
			"expense_category_id": exp.ExpenseCategoryID,
			"description":         exp.Description,
			"amount":              exp.Amount,
			"remarks":             exp.Remarks,
		})
		return err
	})
	if err != nil {
		return nil, errors.Annotatef(classify(err), "expense %d", id)
	}
	r.logger.Debug("expense updated", zap.String("user_id", userID), zap.Uint("expense_id", id))
	return r.Get(ctx, userID, id)
}

func (r *Repository) Delete(ctx context.Context, userID string, id uint) (*models.Expense, error) {
	exp, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteOwned(ctx, r.db, &models.Expense{}, userID, id); err != nil {
		return nil, errors.Annotatef(err, "expense %d", id)
	}
	r.logger.Debug("expense deleted", zap.String("user_id", userID), zap.Uint("expense_id", id))
	return exp, nil
}

func classify(err error) error {
	if store.IsForeignKey(err) {
		return apperr.FieldError("expense_category_id", unknownCategoryMessage)
	}
	return errors.Trace(err)
}
