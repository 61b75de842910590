// Package report computes the read-only aggregates behind the dashboard and
// the monthly and yearly reports. Sums always read the persisted
// total_quantity and total_amount columns, and an empty period yields zeros.
package report

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/store"
)

const (
	minYear = 1900
	maxYear = 9999

	recentMilkRecords = 30
	performanceDays   = 7
)

type Engine struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewEngine(db *gorm.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

func checkYear(verr *apperr.ValidationError, year int) {
	if year < minYear || year > maxYear {
		verr.AddField("year", "Year must be between 1900 and 9999.")
	}
}

func checkYearMonth(year, month int) error {
	verr := apperr.NewValidationError()
	checkYear(verr, year)
	if month < 1 || month > 12 {
		verr.AddField("month", "Month must be between 1 and 12.")
	}
	return verr.OrNil()
}

// average is the mean of the per-day totals, zero when there are no days.
func average(total decimal.Decimal, days int) decimal.Decimal {
	if days == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(days)), 2)
}

// sum totals column over the user's rows with dateColumn in [from, to].
func (e *Engine) sum(ctx context.Context, model any, column, dateColumn, userID string, from, to models.Date) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := store.Owned(e.db.WithContext(ctx).Model(model), userID).
		Select("COALESCE(SUM("+column+"), 0)").
		Where(dateColumn+" >= ? AND "+dateColumn+" <= ?", from, to).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, errors.Annotatef(err, "summing %s", column)
	}
	return total.Round(2), nil
}

// CowStatistics counts the user's herd.
func (e *Engine) CowStatistics(ctx context.Context, userID string) (CowStatistics, error) {
	var stats CowStatistics
	err := store.Owned(e.db.WithContext(ctx).Model(&models.Cow{}), userID).
		Select(`COUNT(*) AS total_cows,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_cows,
			COALESCE(SUM(CASE WHEN is_pregnant THEN 1 ELSE 0 END), 0) AS pregnant_cows,
			COALESCE(SUM(CASE WHEN health_status = ? THEN 1 ELSE 0 END), 0) AS sick_cows`,
			models.CowActive, models.HealthSick).
		Scan(&stats).Error
	if err != nil {
		return CowStatistics{}, errors.Annotate(err, "counting cows")
	}
	return stats, nil
}

// Dashboard is the snapshot shown on the home screen for the given day.
func (e *Engine) Dashboard(ctx context.Context, userID string, today models.Date) (*DashboardSnapshot, error) {
	stats, err := e.CowStatistics(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	snap := &DashboardSnapshot{
		Date:         today,
		TotalCows:    stats.TotalCows,
		ActiveCows:   stats.ActiveCows,
		PregnantCows: stats.PregnantCows,
	}

	if snap.TodayMilk, err = e.sum(ctx, &models.MilkRecord{}, "total_quantity", "date", userID, today, today); err != nil {
		return nil, errors.Trace(err)
	}
	if snap.TodaySales, err = e.sum(ctx, &models.MilkSale{}, "total_amount", "sale_date", userID, today, today); err != nil {
		return nil, errors.Trace(err)
	}
	if snap.TodayExpenses, err = e.sum(ctx, &models.Expense{}, "amount", "expense_date", userID, today, today); err != nil {
		return nil, errors.Trace(err)
	}

	from, to := models.MonthRange(today.Year(), today.Month())
	if snap.MonthMilk, err = e.dailyMilk(ctx, userID, from, to); err != nil {
		return nil, errors.Trace(err)
	}
	if snap.MonthSales, err = e.dailySales(ctx, userID, from, to); err != nil {
		return nil, errors.Trace(err)
	}
	if snap.MonthExpenses, err = e.dailyExpenses(ctx, userID, from, to); err != nil {
		return nil, errors.Trace(err)
	}
	return snap, nil
}

// MonthlyProfitLoss is sales revenue minus expenses over the calendar month.
func (e *Engine) MonthlyProfitLoss(ctx context.Context, userID string, year, month int) (*ProfitLoss, error) {
	if err := checkYearMonth(year, month); err != nil {
		return nil, err
	}
	from, to := models.MonthRange(year, time.Month(month))

	sales, err := e.sum(ctx, &models.MilkSale{}, "total_amount", "sale_date", userID, from, to)
	if err != nil {
		return nil, errors.Trace(err)
	}
	expenses, err := e.sum(ctx, &models.Expense{}, "amount", "expense_date", userID, from, to)
	if err != nil {
		return nil, errors.Trace(err)
	}

	result := sales.Sub(expenses)
	return &ProfitLoss{
		Year:          year,
		Month:         month,
		MonthName:     time.Month(month).String(),
		TotalSales:    sales,
		TotalExpenses: expenses,
		ProfitLoss:    result,
		IsProfit:      !result.IsNegative(),
	}, nil
}

// YearlyReport runs MonthlyProfitLoss for January through December.
func (e *Engine) YearlyReport(ctx context.Context, userID string, year int) (*YearlyReport, error) {
	verr := apperr.NewValidationError()
	checkYear(verr, year)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	out := &YearlyReport{
		Year:          year,
		Months:        make([]ProfitLoss, 0, 12),
		TotalSales:    decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for m := 1; m <= 12; m++ {
		pl, err := e.MonthlyProfitLoss(ctx, userID, year, m)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out.Months = append(out.Months, *pl)
		out.TotalSales = out.TotalSales.Add(pl.TotalSales)
		out.TotalExpenses = out.TotalExpenses.Add(pl.TotalExpenses)
	}
	out.ProfitLoss = out.TotalSales.Sub(out.TotalExpenses)
	return out, nil
}

// DailyMilkSummary groups the day's milk records by cow, ordered by tag.
func (e *Engine) DailyMilkSummary(ctx context.Context, userID string, day models.Date) (*DailyMilkSummary, error) {
	rows := make([]CowMilk, 0)
	err := e.db.WithContext(ctx).
		Table("milk_records AS m").
		Select(`c.id AS cow_id, c.tag_number AS tag_number, c.name AS cow_name,
			COALESCE(SUM(m.morning_quantity), 0) AS morning,
			COALESCE(SUM(m.evening_quantity), 0) AS evening,
			COALESCE(SUM(m.total_quantity), 0) AS total`).
		Joins("JOIN cows AS c ON c.id = m.cow_id").
		Where("m.user_id = ? AND m.date = ?", userID, day).
		Group("c.id, c.tag_number, c.name").
		Order("c.tag_number ASC").Order("c.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotate(err, "summarising daily milk")
	}

	out := &DailyMilkSummary{
		Date:         day,
		Cows:         rows,
		TotalMorning: decimal.Zero,
		TotalEvening: decimal.Zero,
		Total:        decimal.Zero,
	}
	for i := range out.Cows {
		r := &out.Cows[i]
		r.Morning, r.Evening, r.Total = r.Morning.Round(2), r.Evening.Round(2), r.Total.Round(2)
		out.TotalMorning = out.TotalMorning.Add(r.Morning)
		out.TotalEvening = out.TotalEvening.Add(r.Evening)
		out.Total = out.Total.Add(r.Total)
	}
	return out, nil
}

func (e *Engine) dailyMilk(ctx context.Context, userID string, from, to models.Date) ([]DailyMilk, error) {
	rows := make([]DailyMilk, 0)
	err := store.Owned(e.db.WithContext(ctx).Model(&models.MilkRecord{}), userID).
		Select("date AS date, COALESCE(SUM(total_quantity), 0) AS total_quantity, COUNT(*) AS record_count").
		Where("date >= ? AND date <= ?", from, to).
		Group("date").Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotate(err, "grouping milk by day")
	}
	for i := range rows {
		rows[i].TotalQuantity = rows[i].TotalQuantity.Round(2)
	}
	return rows, nil
}

func (e *Engine) dailySales(ctx context.Context, userID string, from, to models.Date) ([]DailySales, error) {
	rows := make([]DailySales, 0)
	err := store.Owned(e.db.WithContext(ctx).Model(&models.MilkSale{}), userID).
		Select(`sale_date AS date, COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(quantity), 0) AS total_quantity, COUNT(*) AS sale_count`).
		Where("sale_date >= ? AND sale_date <= ?", from, to).
		Group("sale_date").Order("sale_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotate(err, "grouping sales by day")
	}
	for i := range rows {
		rows[i].TotalAmount = rows[i].TotalAmount.Round(2)
		rows[i].TotalQuantity = rows[i].TotalQuantity.Round(2)
	}
	return rows, nil
}

func (e *Engine) dailyExpenses(ctx context.Context, userID string, from, to models.Date) ([]DailyExpense, error) {
	rows := make([]DailyExpense, 0)
	err := store.Owned(e.db.WithContext(ctx).Model(&models.Expense{}), userID).
		Select("expense_date AS date, COALESCE(SUM(amount), 0) AS total_amount, COUNT(*) AS expense_count").
		Where("expense_date >= ? AND expense_date <= ?", from, to).
		Group("expense_date").Order("expense_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Annotate(err, "grouping expenses by day")
	}
	for i := range rows {
		rows[i].TotalAmount = rows[i].TotalAmount.Round(2)
	}
	return rows, nil
}

func (e *Engine) MonthlyMilkReport(ctx context.Context, userID string, year, month int) (*MonthlyMilkReport, error) {
	if err := checkYearMonth(year, month); err != nil {
		return nil, err
	}
	from, to := models.MonthRange(year, time.Month(month))
	days, err := e.dailyMilk(ctx, userID, from, to)
	if err != nil {
		return nil, errors.Trace(err)
	}

	total := decimal.Zero
	for _, d := range days {
		total = total.Add(d.TotalQuantity)
	}
	return &MonthlyMilkReport{
		Year:         year,
		Month:        month,
		Days:         days,
		Total:        total,
		AverageDaily: average(total, len(days)),
	}, nil
}

func (e *Engine) MonthlySalesReport(ctx context.Context, userID string, year, month int) (*MonthlySalesReport, error) {
	if err := checkYearMonth(year, month); err != nil {
		return nil, err
	}
	from, to := models.MonthRange(year, time.Month(month))
	days, err := e.dailySales(ctx, userID, from, to)
	if err != nil {
		return nil, errors.Trace(err)
	}

	out := &MonthlySalesReport{
		Year:          year,
		Month:         month,
		Days:          days,
		TotalAmount:   decimal.Zero,
		TotalQuantity: decimal.Zero,
	}
	for _, d := range days {
		out.TotalAmount = out.TotalAmount.Add(d.TotalAmount)
		out.TotalQuantity = out.TotalQuantity.Add(d.TotalQuantity)
	}
	out.AverageDaily = average(out.TotalAmount, len(days))
	return out, nil
}

func (e *Engine) MonthlyExpenseReport(ctx context.Context, userID string, year, month int) (*MonthlyExpenseReport, error) {
	if err := checkYearMonth(year, month); err != nil {
		return nil, err
	}
	from, to := models.MonthRange(year, time.Month(month))
	days, err := e.dailyExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, errors.Trace(err)
	}

	categories := make([]CategoryTotal, 0)
	err = e.db.WithContext(ctx).
		Table("expenses AS e").
		Select(`cat.id AS category_id, cat.name AS category_name,
			COALESCE(SUM(e.amount), 0) AS total_amount, COUNT(*) AS expense_count`).
		Joins("JOIN expense_categories AS cat ON cat.id = e.expense_category_id").
		Where("e.user_id = ? AND e.expense_date >= ? AND e.expense_date <= ?", userID, from, to).
		Group("cat.id, cat.name").
		Order("total_amount DESC").Order("cat.id ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, errors.Annotate(err, "grouping expenses by category")
	}

	out := &MonthlyExpenseReport{
		Year:        year,
		Month:       month,
		Days:        days,
		Categories:  categories,
		TotalAmount: decimal.Zero,
	}
	for i := range out.Categories {
		out.Categories[i].TotalAmount = out.Categories[i].TotalAmount.Round(2)
	}
	for _, d := range days {
		out.TotalAmount = out.TotalAmount.Add(d.TotalAmount)
	}
	out.AverageDaily = average(out.TotalAmount, len(days))
	return out, nil
}

// CowPerformance gathers a cow's recent history: the mean daily yield over
// the last week, its last 30 milk records and all vaccinations.
func (e *Engine) CowPerformance(ctx context.Context, userID string, cowID uint, today models.Date) (*CowPerformance, error) {
	var cow models.Cow
	if err := store.Get(ctx, e.db, userID, cowID, &cow); err != nil {
		return nil, errors.Annotatef(err, "cow %d", cowID)
	}

	var avg decimal.Decimal
	err := store.Owned(e.db.WithContext(ctx).Model(&models.MilkRecord{}), userID).
		Select("COALESCE(AVG(total_quantity), 0)").
		Where("cow_id = ? AND date >= ? AND date <= ?", cowID, today.AddDays(0, 0, -performanceDays), today).
		Row().Scan(&avg)
	if err != nil {
		return nil, errors.Annotate(err, "averaging weekly milk")
	}

	records := make([]models.MilkRecord, 0)
	err = store.Owned(e.db.WithContext(ctx), userID).
		Where("cow_id = ?", cowID).
		Order("date DESC").Order("id DESC").
		Limit(recentMilkRecords).
		Find(&records).Error
	if err != nil {
		return nil, errors.Annotate(err, "loading recent milk records")
	}

	vaccinations := make([]models.Vaccination, 0)
	err = store.Owned(e.db.WithContext(ctx), userID).
		Where("cow_id = ?", cowID).
		Order("vaccination_date DESC").Order("id DESC").
		Find(&vaccinations).Error
	if err != nil {
		return nil, errors.Annotate(err, "loading vaccinations")
	}

	return &CowPerformance{
		Cow:                  &cow,
		Age:                  cow.Age(today),
		AverageDailyLastWeek: avg.Round(2),
		RecentMilkRecords:    records,
		Vaccinations:         vaccinations,
	}, nil
}
