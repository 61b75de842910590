package sales

import (
	"context"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gaughar-backend/internal/models"
	"gaughar-backend/internal/store"
	"gaughar-backend/internal/validation"
)

type Filter struct {
	From      *models.Date
	To        *models.Date
	BuyerType models.BuyerType
	// Search matches the buyer name.
	Search string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	q = store.DateRange(q, "sale_date", f.From, f.To)
	q = store.Contains(q, f.Search, "buyer_name")
	if f.BuyerType != "" {
		q = q.Where("buyer_type = ?", f.BuyerType)
	}
	return q
}

// Totals sums the sales List returns for the same filter. AverageRate is the
// plain mean of the rates, zero when nothing matches.
type Totals struct {
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AverageRate   decimal.Decimal `json:"average_rate"`
	SaleCount     int64           `json:"sale_count"`
}

type totalsRow struct {
	TotalQuantity decimal.Decimal
	TotalAmount   decimal.Decimal
	RateSum       decimal.Decimal
	SaleCount     int64
}

type Repository struct {
	db       *gorm.DB
	validate *validation.Validator
	logger   *zap.Logger
}

func NewRepository(db *gorm.DB, validate *validation.Validator, logger *zap.Logger) *Repository {
	return &Repository{db: db, validate: validate, logger: logger}
}

func (r *Repository) List(ctx context.Context, userID string, f Filter) ([]models.MilkSale, error) {
	q := f.apply(store.Owned(r.db.WithContext(ctx), userID))

	out := make([]models.MilkSale, 0)
	if err := q.Order("sale_date DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, errors.Annotate(err, "listing milk sales")
	}
	return out, nil
}

func (r *Repository) Totals(ctx context.Context, userID string, f Filter) (Totals, error) {
	var row totalsRow
	err := f.apply(store.Owned(r.db.WithContext(ctx).Model(&models.MilkSale{}), userID)).
		Select(`COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(rate_per_liter), 0) AS rate_sum,
			COUNT(*) AS sale_count`).
		Scan(&row).Error
	if err != nil {
		return Totals{}, errors.Annotate(err, "totalling milk sales")
	}

	t := Totals{
		TotalQuantity: row.TotalQuantity.Round(2),
		TotalAmount:   row.TotalAmount.Round(2),
		SaleCount:     row.SaleCount,
	}
	if row.SaleCount > 0 {
		t.AverageRate = row.RateSum.DivRound(decimal.NewFromInt(row.SaleCount), 2)
	}
	return t, nil
}

func (r *Repository) Get(ctx context.Context, userID string, id uint) (*models.MilkSale, error) {
	var sale models.MilkSale
	if err := store.Get(ctx, r.db, userID, id, &sale); err != nil {
		return nil, errors.Annotatef(err, "milk sale %d", id)
	}
	return &sale, nil
}

func (r *Repository) prepare(userID string, sale *models.MilkSale) error {
	sale.UserID = userID
	sale.User = nil
	sale.ApplyDefaults()
	if err := r.validate.Struct(sale); err != nil {
		return err
	}
	sale.ComputeTotal()
	return nil
}

func (r *Repository) Create(ctx context.Context, userID string, sale *models.MilkSale) (*models.MilkSale, error) {
	sale.ID = 0
	sale.Version = 1
	if err := r.prepare(userID, sale); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(sale).Error
	})
	if err != nil {
		return nil, errors.Annotate(err, "creating milk sale")
	}
	r.logger.Debug("milk sale created", zap.String("user_id", userID), zap.Uint("milk_sale_id", sale.ID))
	return sale, nil
}

func (r *Repository) Update(ctx context.Context, userID string, id uint, sale *models.MilkSale) (*models.MilkSale, error) {
	if err := store.CheckWrite(ctx, r.db, &models.MilkSale{}, userID, id, sale.ID, sale.UserID); err != nil {
		return nil, errors.Annotatef(err, "milk sale %d", id)
	}
	if err := r.prepare(userID, sale); err != nil {
		return nil, err
	}

	var updated models.MilkSale
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := store.UpdateVersioned(ctx, tx, &models.MilkSale{}, userID, id, sale.Version, map[string]any{
			"sale_date":      sale.SaleDate,
			"buyer_name":     sale.BuyerName,
			"buyer_type":     sale.BuyerType,
			"quantity":       sale.Quantity,
			"rate_per_liter": sale.RatePerLiter,
			"total_amount":   sale.TotalAmount,
			"remarks":        sale.Remarks,
		})
		if err != nil {
			return err
		}
		return store.Get(ctx, tx, userID, id, &updated)
	})
	if err != nil {
		return nil, errors.Annotatef(err, "milk sale %d", id)
	}
	r.logger.Debug("milk sale updated", zap.String("user_id", userID), zap.Uint("milk_sale_id", id))
	return &updated, nil
}

func (r *Repository) Delete(ctx context.Context, userID string, id uint) (*models.MilkSale, error) {
	sale, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteOwned(ctx, r.db, &models.MilkSale{}, userID, id); err != nil {
		return nil, errors.Annotatef(err, "milk sale %d", id)
	}
	r.logger.Debug("milk sale deleted", zap.String("user_id", userID), zap.Uint("milk_sale_id", id))
	return sale, nil
}
