package report

import (
	"github.com/shopspring/decimal"

	"gaughar-backend/internal/models"
)

type DashboardSnapshot struct {
	Date          models.Date     `json:"date"`
	TotalCows     int64           `json:"total_cows"`
	ActiveCows    int64           `json:"active_cows"`
	PregnantCows  int64           `json:"pregnant_cows"`
	TodayMilk     decimal.Decimal `json:"today_milk"`
	TodaySales    decimal.Decimal `json:"today_sales"`
	TodayExpenses decimal.Decimal `json:"today_expenses"`

	// Per-day series for the month containing Date.
	MonthMilk     []DailyMilk    `json:"month_milk"`
	MonthSales    []DailySales   `json:"month_sales"`
	MonthExpenses []DailyExpense `json:"month_expenses"`
}

type ProfitLoss struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	MonthName     string          `json:"month_name"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	IsProfit      bool            `json:"is_profit"`
}

type YearlyReport struct {
	Year          int             `json:"year"`
	Months        []ProfitLoss    `json:"months"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
}

type CowMilk struct {
	CowID     uint            `json:"cow_id"`
	TagNumber string          `json:"tag_number"`
	CowName   string          `json:"cow_name"`
	Morning   decimal.Decimal `json:"morning"`
	Evening   decimal.Decimal `json:"evening"`
	Total     decimal.Decimal `json:"total"`
}

type DailyMilkSummary struct {
	Date         models.Date     `json:"date"`
	Cows         []CowMilk       `json:"cows"`
	TotalMorning decimal.Decimal `json:"total_morning"`
	TotalEvening decimal.Decimal `json:"total_evening"`
	Total        decimal.Decimal `json:"total"`
}

type DailyMilk struct {
	Date          models.Date     `json:"date"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	RecordCount   int64           `json:"record_count"`
}

type MonthlyMilkReport struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Days         []DailyMilk     `json:"days"`
	Total        decimal.Decimal `json:"total"`
	AverageDaily decimal.Decimal `json:"average_daily"`
}

type DailySales struct {
	Date          models.Date     `json:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	SaleCount     int64           `json:"sale_count"`
}

type MonthlySalesReport struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Days          []DailySales    `json:"days"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	AverageDaily  decimal.Decimal `json:"average_daily"`
}

type DailyExpense struct {
	Date         models.Date     `json:"date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int64           `json:"expense_count"`
}

type CategoryTotal struct {
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int64           `json:"expense_count"`
}

type MonthlyExpenseReport struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Days         []DailyExpense  `json:"days"`
	Categories   []CategoryTotal `json:"categories"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AverageDaily decimal.Decimal `json:"average_daily"`
}

type CowStatistics struct {
	TotalCows    int64 `json:"total_cows"`
	ActiveCows   int64 `json:"active_cows"`
	PregnantCows int64 `json:"pregnant_cows"`
	SickCows     int64 `json:"sick_cows"`
}

type CowPerformance struct {
	Cow                  *models.Cow          `json:"cow"`
	Age                  int                  `json:"age"`
	AverageDailyLastWeek decimal.Decimal      `json:"average_daily_last_week"`
	RecentMilkRecords    []models.MilkRecord  `json:"recent_milk_records"`
	Vaccinations         []models.Vaccination `json:"vaccinations"`
}
