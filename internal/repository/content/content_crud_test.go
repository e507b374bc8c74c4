package content

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contentColumns = []string{
	"id", "title", "description", "content_type", "duration_seconds", "source_ref",
	"preferred_aspect_ratio", "preferred_duration", "analyzed_at", "created_at", "updated_at",
}

func TestContentRepository_Create(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	content := &model.ContentUpload{
		ID:                   "c1",
		Title:                "Intro to Go",
		ContentType:          model.ContentTypeEducational,
		DurationSeconds:      300,
		SourceRef:            "uploads/c1.mp4",
		PreferredAspectRatio: model.AspectRatioPortrait,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantCode string
	}{
		{
			name: "successful creation",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO contents").
					WithArgs("c1", "Intro to Go", (*string)(nil), "educational", 300.0, "uploads/c1.mp4",
						"9:16", (*int)(nil), (*time.Time)(nil), now, now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "database error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("INSERT INTO contents").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(assert.AnError)
			},
			wantCode: apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			repo := NewRepository(mock)
			err = repo.Create(context.Background(), content)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContentRepository_GetByID(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	preferred := 45

	tests := []struct {
		name     string
		id       string
		setup    func(mock pgxmock.PgxPoolIface)
		want     *model.ContentUpload
		wantCode string
	}{
		{
			name: "found",
			id:   "c1",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(contentColumns).
					AddRow("c1", "Intro to Go", (*string)(nil), "tutorial", 300.0, "uploads/c1.mp4",
						"1:1", &preferred, (*time.Time)(nil), now, now)
				mock.ExpectQuery("FROM contents WHERE id").WithArgs("c1").WillReturnRows(rows)
			},
			want: &model.ContentUpload{
				ID:                   "c1",
				Title:                "Intro to Go",
				ContentType:          model.ContentTypeTutorial,
				DurationSeconds:      300,
				SourceRef:            "uploads/c1.mp4",
				PreferredAspectRatio: model.AspectRatioSquare,
				PreferredDuration:    &preferred,
				CreatedAt:            now,
				UpdatedAt:            now,
			},
		},
		{
			name: "not found",
			id:   "missing",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("FROM contents WHERE id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
			},
			wantCode: apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			repo := NewRepository(mock)
			got, err := repo.GetByID(context.Background(), tt.id)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContentRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(contentColumns).
		AddRow("c2", "Second", (*string)(nil), "interview", 120.0, "uploads/c2.mp4", "9:16", (*int)(nil), (*time.Time)(nil), now, now).
		AddRow("c1", "First", (*string)(nil), "tutorial", 300.0, "uploads/c1.mp4", "9:16", (*int)(nil), &now, now, now)
	mock.ExpectQuery("FROM contents").WithArgs(10, 0).WillReturnRows(rows)

	repo := NewRepository(mock)
	contents, err := repo.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "c2", contents[0].ID)
	assert.Equal(t, model.ContentTypeInterview, contents[0].ContentType)
	assert.NotNil(t, contents[1].AnalyzedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_MarkAnalyzedAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE contents SET analyzed_at").WithArgs("c1", at).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE contents SET analyzed_at").WithArgs("nope", at).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec("DELETE FROM contents").WithArgs("c1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM contents").WithArgs("c1").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepository(mock)
	ctx := context.Background()

	require.NoError(t, repo.MarkAnalyzed(ctx, "c1", at))
	assert.True(t, apperrors.Is(repo.MarkAnalyzed(ctx, "nope", at), apperrors.CodeNotFound))
	require.NoError(t, repo.Delete(ctx, "c1"))
	assert.True(t, apperrors.Is(repo.Delete(ctx, "c1"), apperrors.CodeNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
