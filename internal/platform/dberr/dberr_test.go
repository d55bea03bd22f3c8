// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cmsrest/internal/platform/apperr"
	"github.com/taibuivan/cmsrest/internal/platform/dberr"
)

/*
TestWrap_Classification verifies the mapping from driver errors to application errors.
*/
func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"no_rows", pgx.ErrNoRows, apperr.CodeNotFound, http.StatusNotFound},
		{"wrapped_no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperr.CodeNotFound, http.StatusNotFound},
		{"unique_violation", &pgconn.PgError{Code: "23505"}, apperr.CodeConflict, http.StatusConflict},
		{"foreign_key_violation", &pgconn.PgError{Code: "23503"}, apperr.CodeConflict, http.StatusConflict},
		{"serialization_failure", &pgconn.PgError{Code: "40001"}, apperr.CodeConflict, http.StatusConflict},
		{"unknown", errors.New("connection reset"), apperr.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := apperr.As(dberr.Wrap(tt.err, "test_action"))
			require.NotNil(t, ae)
			assert.Equal(t, tt.code, ae.Code)
			assert.Equal(t, tt.status, ae.HTTPStatus)
		})
	}
}

/*
TestWrap_Passthrough verifies nil and application errors are returned unchanged.
*/
func TestWrap_Passthrough(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "noop"))

	denied := apperr.Denied("only drafts can be edited")
	assert.Same(t, denied, dberr.Wrap(denied, "noop"))
}

/*
TestNotFound_NamesResource verifies the resource-specific not found message.
*/
func TestNotFound_NamesResource(t *testing.T) {
	ae := apperr.As(dberr.NotFound(pgx.ErrNoRows, "Role", "load_role"))
	require.NotNil(t, ae)
	assert.Equal(t, "Role not found", ae.Message)
}
