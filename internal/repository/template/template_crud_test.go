package template

import (
	"context"
	"testing"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var templateColumns = []string{
	"id", "name", "description", "aspect_ratio", "suitable_content_types", "preview_ref", "caption_style", "overlay_color",
}

func TestTemplateRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	overlay := "#00000033"
	rows := pgxmock.NewRows(templateColumns).
		AddRow("template1", "TikTok Explainer", "text-focused", "9:16", []string{"educational", "tutorial"},
			(*string)(nil), []byte(`{"font_family":"Inter","font_size":24,"font_color":"#FFFFFF","background_color":"#000000B3","position":"bottom"}`), &overlay).
		AddRow("template6", "Product Showcase", "square", "1:1", []string{"promotional"},
			(*string)(nil), []byte(`{}`), (*string)(nil))
	mock.ExpectQuery("FROM video_templates ORDER BY id").WillReturnRows(rows)

	repo := NewRepository(mock)
	templates, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, model.AspectRatioPortrait, templates[0].AspectRatio)
	assert.Equal(t, []model.ContentType{model.ContentTypeEducational, model.ContentTypeTutorial}, templates[0].SuitableContentTypes)
	assert.Equal(t, "Inter", templates[0].CaptionStyle.FontFamily)
	assert.Equal(t, 24, templates[0].CaptionStyle.FontSize)
	assert.Equal(t, &overlay, templates[0].OverlayColor)
	assert.Equal(t, model.AspectRatioSquare, templates[1].AspectRatio)
	assert.Nil(t, templates[1].OverlayColor)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_UpsertAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO video_templates").
		WithArgs("t1", "Vertical", "", "9:16", []string{"tutorial"}, (*string)(nil), pgxmock.AnyArg(), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM video_templates").WithArgs("t9").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepository(mock)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.VideoTemplate{
		ID:                   "t1",
		Name:                 "Vertical",
		AspectRatio:          model.AspectRatioPortrait,
		SuitableContentTypes: []model.ContentType{model.ContentTypeTutorial},
	}))
	assert.True(t, apperrors.Is(repo.Delete(ctx, "t9"), apperrors.CodeNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
