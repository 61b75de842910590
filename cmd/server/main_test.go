package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	stdtesting "testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jc "github.com/juju/testing/checkers"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/auth"
	"gaughar-backend/internal/config"
	databasetesting "gaughar-backend/internal/database/testing"
	"gaughar-backend/internal/models"
)

func TestPackage(t *stdtesting.T) {
	gc.TestingT(t)
}

type routesSuite struct {
	databasetesting.DBSuite

	app        *fiber.App
	alice, bob string
	aliceToken string
	bobToken   string
}

var _ = gc.Suite(&routesSuite{})

func (s *routesSuite) SetUpTest(c *gc.C) {
	s.DBSuite.SetUpTest(c)

	cfg := &config.Config{
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		JWTTTL:      time.Hour,
		CORSOrigins: "http://localhost:3000",
		Timezone:    "UTC",
	}
	s.app = newApp(cfg, s.DB, zap.NewNop())

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	s.alice = s.AddUser(c, "alice@example.com")
	s.bob = s.AddUser(c, "bob@example.com")
	var err error
	s.aliceToken, err = issuer.GenerateToken(&models.User{ID: s.alice, Email: "alice@example.com"})
	c.Assert(err, jc.ErrorIsNil)
	s.bobToken, err = issuer.GenerateToken(&models.User{ID: s.bob, Email: "bob@example.com"})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *routesSuite) send(c *gc.C, method, path, token string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		c.Assert(err, jc.ErrorIsNil)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	c.Assert(err, jc.ErrorIsNil)
	return resp
}

func (s *routesSuite) do(c *gc.C, method, path, token string, body any) (int, any) {
	resp := s.send(c, method, path, token, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	var out any
	if len(raw) > 0 {
		c.Assert(json.Unmarshal(raw, &out), jc.ErrorIsNil, gc.Commentf("%s", raw))
	}
	return resp.StatusCode, out
}

func (s *routesSuite) TestProtectedRoutesNeedToken(c *gc.C) {
	status, _ := s.do(c, http.MethodGet, "/api/cows", "", nil)
	c.Check(status, gc.Equals, http.StatusUnauthorized)

	status, _ = s.do(c, http.MethodGet, "/healthz", "", nil)
	c.Check(status, gc.Equals, http.StatusOK)
}

func (s *routesSuite) TestStaticCowRoutesWinOverID(c *gc.C) {
	s.AddCow(c, s.alice, "A-1")
	sold := s.AddCow(c, s.alice, "A-2")
	c.Assert(s.DB.Model(sold).Update("status", models.CowSold).Error, jc.ErrorIsNil)

	status, body := s.do(c, http.MethodGet, "/api/cows/statistics", s.aliceToken, nil)
	c.Assert(status, gc.Equals, http.StatusOK)
	stats := body.(map[string]any)
	c.Check(stats["total_cows"], gc.Equals, float64(2))
	c.Check(stats["active_cows"], gc.Equals, float64(1))

	status, body = s.do(c, http.MethodGet, "/api/cows/active", s.aliceToken, nil)
	c.Assert(status, gc.Equals, http.StatusOK)
	active := body.([]any)
	c.Assert(active, gc.HasLen, 1)
	c.Check(active[0].(map[string]any)["tag_number"], gc.Equals, "A-1")

	status, _ = s.do(c, http.MethodGet, "/api/cows/abc", s.aliceToken, nil)
	c.Check(status, gc.Equals, http.StatusUnprocessableEntity)
}

func (s *routesSuite) TestTenantStatusCodes(c *gc.C) {
	cow := s.AddCow(c, s.alice, "A-1")
	path := fmt.Sprintf("/api/cows/%d", cow.ID)

	status, _ := s.do(c, http.MethodGet, path, s.bobToken, nil)
	c.Check(status, gc.Equals, http.StatusNotFound)

	edit := map[string]any{
		"tag_number": "A-1", "name": "Laxmi", "breed": "Jersey", "date_of_birth": "2020-01-01",
	}
	status, _ = s.do(c, http.MethodPut, path, s.bobToken, edit)
	c.Check(status, gc.Equals, http.StatusForbidden)

	status, _ = s.do(c, http.MethodDelete, path, s.bobToken, nil)
	c.Check(status, gc.Equals, http.StatusNotFound)
}

func (s *routesSuite) TestBlockedCowDeleteIsConflict(c *gc.C) {
	cow := s.AddCow(c, s.alice, "A-1")
	status, _ := s.do(c, http.MethodPost, "/api/milk-records", s.aliceToken, map[string]any{
		"cow_id": cow.ID, "date": "2024-03-01", "morning_quantity": "10", "evening_quantity": "8",
	})
	c.Assert(status, gc.Equals, http.StatusCreated)

	status, body := s.do(c, http.MethodDelete, fmt.Sprintf("/api/cows/%d", cow.ID), s.aliceToken, nil)
	c.Check(status, gc.Equals, http.StatusConflict)
	c.Check(body.(map[string]any)["error"], gc.Equals, "Cannot delete: dependent records exist.")
}

func (s *routesSuite) TestUpdateAuditsPreviousState(c *gc.C) {
	cow := s.AddCow(c, s.alice, "A-1")
	path := fmt.Sprintf("/api/cows/%d", cow.ID)

	status, _ := s.do(c, http.MethodPut, path, s.aliceToken, map[string]any{
		"tag_number": "A-1", "name": "Laxmi", "breed": "Jersey", "date_of_birth": "2020-01-01",
	})
	c.Assert(status, gc.Equals, http.StatusOK)

	var logs []models.AuditLog
	c.Assert(s.DB.Where("user_id = ? AND action = ?", s.alice, models.AuditActionUpdate).Find(&logs).Error, jc.ErrorIsNil)
	c.Assert(logs, gc.HasLen, 1)
	c.Check(logs[0].BeforeData, jc.Contains, `"name":"Cow A-1"`)
	c.Check(logs[0].AfterData, jc.Contains, `"name":"Laxmi"`)
}

func (s *routesSuite) TestListsCarryTotals(c *gc.C) {
	cow := s.AddCow(c, s.alice, "A-1")
	for _, day := range []string{"2024-03-01", "2024-03-02"} {
		status, _ := s.do(c, http.MethodPost, "/api/milk-records", s.aliceToken, map[string]any{
			"cow_id": cow.ID, "date": day, "morning_quantity": "10.25", "evening_quantity": "8",
		})
		c.Assert(status, gc.Equals, http.StatusCreated)
	}

	status, body := s.do(c, http.MethodGet, "/api/milk-records?from=2024-03-02", s.aliceToken, nil)
	c.Assert(status, gc.Equals, http.StatusOK)
	list := body.(map[string]any)
	c.Check(list["items"], gc.HasLen, 1)
	totals := list["totals"].(map[string]any)
	grand, err := decimal.NewFromString(totals["grand_total"].(string))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(grand.StringFixed(2), gc.Equals, "18.25")

	status, body = s.do(c, http.MethodGet, "/api/expenses", s.aliceToken, nil)
	c.Assert(status, gc.Equals, http.StatusOK)
	list = body.(map[string]any)
	c.Check(list["items"], gc.HasLen, 0)
	totals = list["totals"].(map[string]any)
	c.Check(totals["average_expense"], gc.Equals, "0")

	status, body = s.do(c, http.MethodPost, "/api/milk-sales", s.aliceToken, map[string]any{
		"sale_date": "2024-03-01", "buyer_name": "Ram", "quantity": "0.004", "rate_per_liter": "1",
	})
	c.Check(status, gc.Equals, http.StatusUnprocessableEntity)
	fields := body.(map[string]any)["fields"].(map[string]any)
	c.Check(fields["quantity"], jc.DeepEquals, []any{"Quantity must have at most 2 decimal places."})
}

func (s *routesSuite) TestExportIsSpreadsheet(c *gc.C) {
	resp := s.send(c, http.MethodGet, "/api/dashboard/export?year=2024&month=3", s.aliceToken, nil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, gc.Equals, http.StatusOK)
	c.Check(resp.Header.Get(fiber.HeaderContentType), gc.Equals,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Check(resp.Header.Get(fiber.HeaderContentDisposition), jc.Contains, "gaughar-2024-03.xlsx")

	raw, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(bytes.HasPrefix(raw, []byte("PK")), jc.IsTrue)

	status, _ := s.do(c, http.MethodGet, "/api/dashboard/export?year=2024&month=13", s.aliceToken, nil)
	c.Check(status, gc.Equals, http.StatusUnprocessableEntity)
}
