package server

import (
	"errors"
	"net/http"
	"testing"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"audit bad page token", auditdomain.ErrInvalidPageToken, http.StatusBadRequest, "validation_error"},
		{"audit inverted time range", auditdomain.ErrInvalidTimeRange, http.StatusBadRequest, "validation_error"},
		{"audit empty action", auditdomain.ErrInvalidAction, http.StatusBadRequest, "validation_error"},
		{"duplicate client id", clientdomain.ErrDuplicateID, http.StatusConflict, "conflict"},
		{"gateway failure", &paymentdomain.GatewayError{StatusCode: 502, Err: errors.New("upstream")}, http.StatusBadGateway, "gateway_error"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, payload.Type)
		})
	}
}
