package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/zap"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/auth"
	databasetesting "gaughar-backend/internal/database/testing"
	"gaughar-backend/internal/web"
)

type handlerSuite struct {
	databasetesting.DBSuite

	app *fiber.App
}

var _ = gc.Suite(&handlerSuite{})

func (s *handlerSuite) SetUpTest(c *gc.C) {
	s.DBSuite.SetUpTest(c)

	issuer := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	h := auth.NewHandlers(s.DB, issuer, zap.NewNop())

	s.app = fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler(zap.NewNop())})
	s.app.Post("/api/auth/register", h.Register())
	s.app.Post("/api/auth/login", h.Login())
	s.app.Get("/api/auth/me", auth.JWTMiddleware(issuer), h.Me())
}

func (s *handlerSuite) do(c *gc.C, method, path, token string, body any) (int, map[string]any) {
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
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	if len(raw) > 0 {
		c.Assert(json.Unmarshal(raw, &out), jc.ErrorIsNil)
	}
	return resp.StatusCode, out
}

func (s *handlerSuite) TestRegisterLoginMe(c *gc.C) {
	status, body := s.do(c, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": "Ram Bahadur",
		"email":     "Ram@Example.com",
		"password":  "secret-pass",
	})
	c.Assert(status, gc.Equals, http.StatusCreated)
	c.Check(body["token"], gc.Not(gc.Equals), "")
	user := body["user"].(map[string]any)
	c.Check(user["email"], gc.Equals, "ram@example.com")
	_, leaked := user["password_hash"]
	c.Check(leaked, jc.IsFalse)

	status, body = s.do(c, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ram@example.com",
		"password": "secret-pass",
	})
	c.Assert(status, gc.Equals, http.StatusOK)
	token := body["token"].(string)

	status, body = s.do(c, http.MethodGet, "/api/auth/me", token, nil)
	c.Assert(status, gc.Equals, http.StatusOK)
	c.Check(body["full_name"], gc.Equals, "Ram Bahadur")
}

func (s *handlerSuite) TestRegisterValidation(c *gc.C) {
	status, body := s.do(c, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	})
	c.Assert(status, gc.Equals, http.StatusUnprocessableEntity)
	fields := body["fields"].(map[string]any)
	for _, f := range []string{"full_name", "email", "password"} {
		_, ok := fields[f]
		c.Check(ok, jc.IsTrue, gc.Commentf("field %s", f))
	}
}

func (s *handlerSuite) TestDuplicateEmail(c *gc.C) {
	req := map[string]string{"full_name": "Sita", "email": "sita@example.com", "password": "secret-pass"}
	status, _ := s.do(c, http.MethodPost, "/api/auth/register", "", req)
	c.Assert(status, gc.Equals, http.StatusCreated)

	status, body := s.do(c, http.MethodPost, "/api/auth/register", "", req)
	c.Assert(status, gc.Equals, http.StatusUnprocessableEntity)
	fields := body["fields"].(map[string]any)
	c.Check(fields["email"], jc.DeepEquals, []any{"Email is already registered."})
}

func (s *handlerSuite) TestLoginFailures(c *gc.C) {
	status, _ := s.do(c, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "whatever1",
	})
	c.Check(status, gc.Equals, http.StatusUnauthorized)

	status, _ = s.do(c, http.MethodGet, "/api/auth/me", "", nil)
	c.Check(status, gc.Equals, http.StatusUnauthorized)

	status, _ = s.do(c, http.MethodGet, "/api/auth/me", "garbage", nil)
	c.Check(status, gc.Equals, http.StatusUnauthorized)
}
