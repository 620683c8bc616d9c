package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/tests"
)

func Test_newAppHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
		wantLogs int
	}{
		{
			name:     "http error",
			err:      errHttpNotFound,
			wantCode: http.StatusNotFound,
			wantBody: `{"error": "not found"}`,
		},
		{
			name:     "validation error",
			err:      core.NewValidationError(errors.New("lead already exists")),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "lead already exists"}`,
		},
		{
			name:     "field validation error",
			err:      core.NewValidationError(nil, core.FieldError{Field: "username", Error: "already taken"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"username": "already taken"}`,
		},
		{
			name:     "unexpected error",
			err:      errors.Wrap(errors.New("disk full"), "saving lead"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error": "Internal Server Error"}`,
			wantLogs: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := testutil.NewLogger()
			_, translator := testutil.NewValidator()
			handle := newAppHTTPErrorHandler(logger, translator)

			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/v1/leads", nil), rec)
			handle(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Len(t, logger.Entries("error"), tt.wantLogs)
		})
	}
}
