package common

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// HandlePostgreSQLError converts PostgreSQL-specific errors to appropriate AppError codes
func HandlePostgreSQLError(err error, operation string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.CodeCancelled, operation)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperrors.Wrap(err, apperrors.CodeInternal, operation)
	}

	switch pgErr.Code {
	case "23505": // UNIQUE_VIOLATION
		return handleUniqueViolation(pgErr, operation)

	case "23503": // FOREIGN_KEY_VIOLATION
		return handleForeignKeyViolation(pgErr, operation)

	case "23502": // NOT_NULL_VIOLATION
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "required field is missing")

	case "23514": // CHECK_VIOLATION
		return handleCheckViolation(pgErr)

	case "42P01": // UNDEFINED_TABLE
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: table not found")

	case "42703": // UNDEFINED_COLUMN
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: column not found")

	case "08000", "08003", "08006": // CONNECTION_EXCEPTION variants
		return apperrors.Wrap(err, apperrors.CodeInternal, "database connection error")

	case "53300": // TOO_MANY_CONNECTIONS
		return apperrors.Wrap(err, apperrors.CodeInternal, "database connection limit reached")

	case "40001": // SERIALIZATION_FAILURE
		return apperrors.Wrap(err, apperrors.CodeConflict, "concurrent update, retry the operation")

	default:
		message := "database error (PostgreSQL code: " + pgErr.Code + ")"
		return apperrors.Wrap(err, apperrors.CodeInternal, message)
	}
}

// handleUniqueViolation provides specific error messages for different unique constraints
func handleUniqueViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	constraintName := pgErr.ConstraintName

	switch {
	case strings.Contains(constraintName, "one_active_per_content"):
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "content already has an active processing job")

	case strings.Contains(constraintName, "pkey"):
		switch {
		case strings.Contains(constraintName, "contents"):
			return apperrors.Wrap(pgErr, apperrors.CodeConflict, "content with this ID already exists")
		case strings.Contains(constraintName, "video_segments"):
			return apperrors.Wrap(pgErr, apperrors.CodeConflict, "segment with this ID already exists")
		case strings.Contains(constraintName, "video_templates"):
			return apperrors.Wrap(pgErr, apperrors.CodeConflict, "template with this ID already exists")
		case strings.Contains(constraintName, "processing_results"):
			return apperrors.Wrap(pgErr, apperrors.CodeConflict, "processing job with this ID already exists")
		}
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "resource with this ID already exists")

	default:
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "resource already exists")
	}
}

// handleForeignKeyViolation provides specific error messages for foreign key constraints
func handleForeignKeyViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	constraintName := pgErr.ConstraintName

	switch {
	case strings.Contains(constraintName, "content_id"):
		return apperrors.Wrap(pgErr, apperrors.CodeDependency, "referenced content does not exist")

	case strings.Contains(constraintName, "template_id"):
		return apperrors.Wrap(pgErr, apperrors.CodeDependency, "referenced template does not exist")

	default:
		return apperrors.Wrap(pgErr, apperrors.CodeDependency, "referenced resource does not exist")
	}
}

// handleCheckViolation maps check constraints guarding domain invariants to validation errors
func handleCheckViolation(pgErr *pgconn.PgError) *apperrors.AppError {
	switch {
	case strings.Contains(pgErr.ConstraintName, "bounds"):
		return apperrors.Wrap(pgErr, apperrors.CodeInvalidArg, "segment bounds must satisfy 0 <= start < end")
	case strings.Contains(pgErr.ConstraintName, "score"):
		return apperrors.Wrap(pgErr, apperrors.CodeInvalidArg, "scores must lie in [0,1]")
	default:
		return apperrors.Wrap(pgErr, apperrors.CodeInvalidArg, "data violates check constraint")
	}
}
