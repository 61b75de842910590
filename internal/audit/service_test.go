package audit_test

import (
	"context"
	stdtesting "testing"

	jc "github.com/juju/testing/checkers"
	"go.uber.org/zap"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/audit"
	databasetesting "gaughar-backend/internal/database/testing"
	"gaughar-backend/internal/models"
)

func TestPackage(t *stdtesting.T) {
	gc.TestingT(t)
}

type serviceSuite struct {
	databasetesting.DBSuite

	svc *audit.Service
}

var _ = gc.Suite(&serviceSuite{})

func (s *serviceSuite) SetUpTest(c *gc.C) {
	s.DBSuite.SetUpTest(c)
	s.svc = audit.NewService(s.DB, zap.NewNop())
}

func (s *serviceSuite) TestWriteAndListPerUser(c *gc.C) {
	ctx := context.Background()
	s.svc.Record(ctx, audit.LogOptions{
		UserID:     "alice",
		EntityType: "cow",
		EntityID:   1,
		Action:     models.AuditActionCreate,
		After:      map[string]string{"tag_number": "A-1"},
	})
	s.svc.Record(ctx, audit.LogOptions{
		UserID:     "alice",
		EntityType: "expense",
		EntityID:   4,
		Action:     models.AuditActionDelete,
		Before:     map[string]string{"description": "Hay"},
	})
	s.svc.Record(ctx, audit.LogOptions{UserID: "bob", EntityType: "cow", EntityID: 2, Action: models.AuditActionCreate})

	logs, err := s.svc.List(ctx, "alice", audit.ListFilter{})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(logs, gc.HasLen, 2)
	c.Check(logs[0].EntityType, gc.Equals, "expense")
	c.Check(logs[0].BeforeData, gc.Equals, `{"description":"Hay"}`)
	c.Check(logs[0].AfterData, gc.Equals, "null")
	c.Check(logs[1].AfterData, gc.Equals, `{"tag_number":"A-1"}`)

	id := uint(1)
	logs, err = s.svc.List(ctx, "alice", audit.ListFilter{EntityType: "cow", EntityID: &id})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(logs, gc.HasLen, 1)
	c.Check(logs[0].Action, gc.Equals, models.AuditActionCreate)
}
