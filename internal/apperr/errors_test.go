package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   error
		status int
		label  string
	}{
		{"validation", Validation("op", map[string]string{"name": "required"}), ErrValidation, http.StatusBadRequest, "validation"},
		{"not found", NotFound("op", "shop"), ErrNotFound, http.StatusNotFound, "not_found"},
		{"forbidden", Forbidden("op", "nope"), ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unauthenticated", Unauthenticated("op", "login"), ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"conflict", Conflict("op", "dup"), ErrConflict, http.StatusConflict, "conflict"},
		{"upstream", Upstream("op", sql.ErrConnDone), ErrUpstream, http.StatusInternalServerError, "internal"},
		{"plain error", errors.New("boom"), nil, http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Kind(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.label, KindName(tt.err))
		})
	}
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("shops.Get", "shop"))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "shop not found", PublicMessage(err))
}

func TestUpstreamKeepsCauseButHidesIt(t *testing.T) {
	err := Upstream("shops.List", sql.ErrConnDone)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Contains(t, err.Error(), "shops.List")
}

func TestWrapfLeavesKindedErrorsAlone(t *testing.T) {
	nf := NotFound("op", "offer")
	assert.Same(t, nf, Wrapf("other", nf, "loading"))

	wrapped := Wrapf("offers.Get", sql.ErrTxDone, "loading offer %d", 3)
	assert.ErrorIs(t, wrapped, ErrUpstream)
	assert.ErrorIs(t, wrapped, sql.ErrTxDone)
	assert.Contains(t, wrapped.Error(), "loading offer 3")

	assert.NoError(t, Wrapf("op", nil, "x"))
}

func TestValidationMessageListsFields(t *testing.T) {
	err := Validation("checkout", map[string]string{"phone": "required", "address": "required"})
	assert.Equal(t, "checkout: invalid input (address: required, phone: required)", err.Error())
	assert.Equal(t, map[string]string{"phone": "required", "address": "required"}, FieldErrors(err))
}
