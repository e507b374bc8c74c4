package template

import (
	"context"
	"testing"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededService(t *testing.T) TemplateService {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, Seed(context.Background(), store.Templates()))
	return NewTemplateService(store.Templates())
}

func ids(templates []model.VideoTemplate) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.ID
	}
	return out
}

func TestTemplateService_Recommend(t *testing.T) {
	svc := newSeededService(t)
	portrait := model.AspectRatioPortrait
	square := model.AspectRatioSquare
	landscape := model.AspectRatioLandscape

	tests := []struct {
		name   string
		ct     model.ContentType
		aspect *model.AspectRatio
		want   []string
	}{
		{name: "educational any ratio", ct: model.ContentTypeEducational, want: []string{"template1", "template3", "template4", "template5"}},
		{name: "promotional portrait", ct: model.ContentTypePromotional, aspect: &portrait, want: []string{"template2"}},
		{name: "promotional square", ct: model.ContentTypePromotional, aspect: &square, want: []string{"template6"}},
		{name: "no landscape templates", ct: model.ContentTypeTutorial, aspect: &landscape, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := svc.Recommend(context.Background(), tt.ct, tt.aspect)
			require.NoError(t, err)
			second, err := svc.Recommend(context.Background(), tt.ct, tt.aspect)
			require.NoError(t, err)

			assert.Equal(t, tt.want, ids(first))
			assert.Equal(t, first, second)
		})
	}

	_, err := svc.Recommend(context.Background(), model.ContentType("product"), nil)
	assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
}

func TestMatch_OrderIndependentOfInput(t *testing.T) {
	templates := DefaultTemplates()
	reversed := make([]model.VideoTemplate, len(templates))
	for i, tpl := range templates {
		reversed[len(templates)-1-i] = tpl
	}

	assert.Equal(t,
		Match(templates, model.ContentTypeEducational, nil),
		Match(reversed, model.ContentTypeEducational, nil))
}

func TestTemplateService_RecommendIDs(t *testing.T) {
	svc := newSeededService(t)

	got, err := svc.RecommendIDs(context.Background(), model.ContentTypeEducational, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"template1", "template3", "template4"}, got)

	// an empty catalogue match falls back to all templates
	store := memory.NewStore()
	require.NoError(t, store.Templates().Upsert(context.Background(), &model.VideoTemplate{
		ID: "only", AspectRatio: model.AspectRatioSquare, SuitableContentTypes: []model.ContentType{model.ContentTypeInterview},
	}))
	got, err = NewTemplateService(store.Templates()).RecommendIDs(context.Background(), model.ContentTypeTutorial, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got)
}

func TestTemplateService_Compatible(t *testing.T) {
	svc := newSeededService(t)

	tpl, ok, err := svc.Compatible(context.Background(), "template1", model.ContentTypeTutorial)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "TikTok Explainer", tpl.Name)

	_, ok, err = svc.Compatible(context.Background(), "template2", model.ContentTypeTutorial)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = svc.Compatible(context.Background(), "missing", model.ContentTypeTutorial)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}
