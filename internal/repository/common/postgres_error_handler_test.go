package common

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHandlePostgreSQLError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "active job admission",
			err:         &pgconn.PgError{Code: "23505", ConstraintName: "processing_results_one_active_per_content"},
			wantCode:    apperrors.CodeConflict,
			wantMessage: "content already has an active processing job",
		},
		{
			name:        "segment primary key",
			err:         &pgconn.PgError{Code: "23505", ConstraintName: "video_segments_pkey"},
			wantCode:    apperrors.CodeConflict,
			wantMessage: "segment with this ID already exists",
		},
		{
			name:        "missing content",
			err:         &pgconn.PgError{Code: "23503", ConstraintName: "video_segments_content_id_fkey"},
			wantCode:    apperrors.CodeDependency,
			wantMessage: "referenced content does not exist",
		},
		{
			name:        "segment bounds check",
			err:         &pgconn.PgError{Code: "23514", ConstraintName: "video_segments_bounds_check"},
			wantCode:    apperrors.CodeInvalidArg,
			wantMessage: "segment bounds must satisfy 0 <= start < end",
		},
		{
			name:        "unknown postgres code",
			err:         &pgconn.PgError{Code: "XX000"},
			wantCode:    apperrors.CodeInternal,
			wantMessage: "database error (PostgreSQL code: XX000)",
		},
		{
			name:        "context cancelled",
			err:         fmt.Errorf("query: %w", context.Canceled),
			wantCode:    apperrors.CodeCancelled,
			wantMessage: "failed to get content",
		},
		{
			name:        "plain error",
			err:         assert.AnError,
			wantCode:    apperrors.CodeInternal,
			wantMessage: "failed to get content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := HandlePostgreSQLError(tt.err, "failed to get content")
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMessage, appErr.Message)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	assert.Nil(t, HandlePostgreSQLError(nil, "noop"))
}
