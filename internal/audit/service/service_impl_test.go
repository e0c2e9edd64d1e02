package service_test

import (
	"context"
	"testing"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	auditrepo "github.com/brightfold/portal/internal/audit/repository"
	auditservice "github.com/brightfold/portal/internal/audit/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditService(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	return svc, db
}

func TestRecordPersistsEntry(t *testing.T) {
	svc, db := newAuditService(t)

	err := svc.Record(context.Background(), "staff-1", "invoice.created", "Invoice", "42", map[string]any{
		"invoice_number": "INV-2026-00001",
	})
	require.NoError(t, err)

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "staff-1", entry.ActorID)
	assert.Equal(t, "invoice.created", entry.Action)
	assert.Equal(t, "Invoice", entry.EntityType)
	assert.Equal(t, "42", entry.EntityID)
	assert.Equal(t, "INV-2026-00001", entry.Changes["invoice_number"])
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _ := newAuditService(t)

	err := svc.Record(context.Background(), "staff-1", "  ", "Invoice", "42", nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListFiltersByActionAndEntity(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "staff-1", "invoice.created", "Invoice", "1", nil))
	require.NoError(t, svc.Record(ctx, "staff-1", "invoice.paid", "Invoice", "1", nil))
	require.NoError(t, svc.Record(ctx, "staff-2", "client.created", "Client", "9", nil))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "invoice.paid"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "invoice.paid", resp.AuditLogs[0].Action)

	resp, err = svc.List(ctx, auditdomain.ListAuditLogRequest{EntityType: "Invoice", EntityID: "1"})
	require.NoError(t, err)
	assert.Len(t, resp.AuditLogs, 2)

	resp, err = svc.List(ctx, auditdomain.ListAuditLogRequest{ActorID: "staff-2"})
	require.NoError(t, err)
	assert.Len(t, resp.AuditLogs, 1)
}

func TestListPaginatesWithCursor(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, "staff-1", "invoice.created", "Invoice", "1", nil))
	}

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 3
	resp, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 3)
	require.True(t, resp.HasMore)

	req.PageToken = resp.NextPageToken
	resp, err = svc.List(ctx, req)
	require.NoError(t, err)
	assert.Len(t, resp.AuditLogs, 2)
	assert.False(t, resp.HasMore)
}

func TestListRejectsBadPageToken(t *testing.T) {
	svc, _ := newAuditService(t)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "not-a-token"
	_, err := svc.List(context.Background(), req)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
