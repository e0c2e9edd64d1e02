package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	auditrepo "github.com/brightfold/portal/internal/audit/repository"
	auditservice "github.com/brightfold/portal/internal/audit/service"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	clientrepo "github.com/brightfold/portal/internal/client/repository"
	clientservice "github.com/brightfold/portal/internal/client/service"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	"github.com/brightfold/portal/internal/sequence"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newClientService(t *testing.T) (clientdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&invoicedomain.Invoice{},
		&auditdomain.AuditLog{},
	))
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS number_sequences (
		scope TEXT NOT NULL,
		year INT NOT NULL,
		last_value BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (scope, year)
	)`).Error)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	svc := clientservice.NewService(clientservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Seq:      sequence.NewGenerator(sequence.Params{Log: zap.NewNop()}),
		AuditSvc: auditSvc,
		Repo:     clientrepo.Provide(),
	})

	return svc, db
}

func TestCreateClientAssignsSequentialIDs(t *testing.T) {
	svc, db := newClientService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "staff-1", clientdomain.CreateClientRequest{Name: "Acme Studios"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "staff-1", clientdomain.CreateClientRequest{Name: "Beta Corp"})
	require.NoError(t, err)

	year := time.Now().UTC().Format("2006")
	assert.Equal(t, fmt.Sprintf("CL-%s-00001", year), first.ClientID)
	assert.Equal(t, fmt.Sprintf("CL-%s-00002", year), second.ClientID)
	assert.Equal(t, clientdomain.ClientStatusActive, first.Status)
	assert.Equal(t, "INR", first.Currency)

	var count int64
	require.NoError(t, db.Model(&auditdomain.AuditLog{}).Where("action = ?", "client.created").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreateClientDuplicateIDIsConflict(t *testing.T) {
	svc, db := newClientService(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&clientdomain.Client{
		ID:        node.Generate(),
		ClientID:  fmt.Sprintf("CL-%s-00001", now.Format("2006")),
		Name:      "Imported Legacy",
		Currency:  "INR",
		Status:    clientdomain.ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	_, err = svc.Create(ctx, "staff-1", clientdomain.CreateClientRequest{Name: "Acme Studios"})
	assert.ErrorIs(t, err, clientdomain.ErrDuplicateID)
}

func TestCreateClientRequiresName(t *testing.T) {
	svc, _ := newClientService(t)

	_, err := svc.Create(context.Background(), "staff-1", clientdomain.CreateClientRequest{Name: "   "})
	assert.ErrorIs(t, err, clientdomain.ErrInvalidName)
}

func TestUpdateClientStatus(t *testing.T) {
	svc, db := newClientService(t)
	ctx := context.Background()

	client, err := svc.Create(ctx, "staff-1", clientdomain.CreateClientRequest{Name: "Acme Studios"})
	require.NoError(t, err)

	suspended := clientdomain.ClientStatusSuspended
	updated, err := svc.Update(ctx, "staff-1", clientdomain.UpdateClientRequest{ID: client.ID, Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, clientdomain.ClientStatusSuspended, updated.Status)

	bogus := clientdomain.ClientStatus("archived")
	_, err = svc.Update(ctx, "staff-1", clientdomain.UpdateClientRequest{ID: client.ID, Status: &bogus})
	assert.ErrorIs(t, err, clientdomain.ErrInvalidStatus)

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry, "action = ?", "client.updated").Error)
	assert.Equal(t, "staff-1", entry.ActorID)
}

func TestGetClientByIDNotFound(t *testing.T) {
	svc, _ := newClientService(t)

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), node.Generate())
	assert.ErrorIs(t, err, clientdomain.ErrNotFound)
}

func TestListClientsIncludesInvoiceCounts(t *testing.T) {
	svc, db := newClientService(t)
	ctx := context.Background()

	client, err := svc.Create(ctx, "staff-1", clientdomain.CreateClientRequest{Name: "Acme Studios"})
	require.NoError(t, err)

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&invoicedomain.Invoice{
			ID:            node.Generate(),
			InvoiceNumber: fmt.Sprintf("INV-2026-%05d", i+1),
			ClientID:      client.ID,
			Status:        invoicedomain.InvoiceStatusPending,
			Currency:      "INR",
			IssuedAt:      now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}).Error)
	}

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].InvoiceCount)
}
