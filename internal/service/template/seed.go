package template

import (
	"context"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
	templaterepo "github.com/Taichi-iskw/yt-shorts/internal/repository/template"
)

// DefaultTemplates returns the built-in template catalogue
func DefaultTemplates() []model.VideoTemplate {
	return []model.VideoTemplate{
		{
			ID:                   "template1",
			Name:                 "TikTok Explainer",
			Description:          "Clean, text-focused template for educational content",
			AspectRatio:          model.AspectRatioPortrait,
			SuitableContentTypes: []model.ContentType{model.ContentTypeEducational, model.ContentTypeTutorial},
			CaptionStyle:         captions("Inter", 24, "#FFFFFF", "#000000B3", "bottom"),
			OverlayColor:         model.Ptr("#00000033"),
		},
		{
			ID:                   "template2",
			Name:                 "Dynamic Promo",
			Description:          "Fast-paced template with motion graphics for promotional content",
			AspectRatio:          model.AspectRatioPortrait,
			SuitableContentTypes: []model.ContentType{model.ContentTypePromotional, model.ContentTypeEntertainment},
			CaptionStyle:         captions("Montserrat", 28, "#FFFFFF", "#3B82F6B3", "bottom"),
			OverlayColor:         model.Ptr("#3B82F633"),
		},
		{
			ID:                   "template3",
			Name:                 "Interview Highlights",
			Description:          "Template for showcasing key moments from interviews",
			AspectRatio:          model.AspectRatioPortrait,
			SuitableContentTypes: []model.ContentType{model.ContentTypeInterview, model.ContentTypeEducational},
			CaptionStyle:         captions("Roboto", 22, "#FFFFFF", "#000000CC", "bottom"),
			OverlayColor:         model.Ptr("#00000022"),
		},
		{
			ID:                   "template4",
			Name:                 "Tutorial Steps",
			Description:          "Step-by-step format for tutorials with clear instructions",
			AspectRatio:          model.AspectRatioPortrait,
			SuitableContentTypes: []model.ContentType{model.ContentTypeTutorial, model.ContentTypeEducational},
			CaptionStyle:         captions("Roboto", 26, "#333333", "#FFFFFFCC", "middle"),
			OverlayColor:         model.Ptr("#FFFFFF33"),
		},
		{
			ID:                   "template5",
			Name:                 "Presentation Clips",
			Description:          "Template for converting presentation slides to engaging videos",
			AspectRatio:          model.AspectRatioPortrait,
			SuitableContentTypes: []model.ContentType{model.ContentTypePresentation, model.ContentTypeEducational},
			CaptionStyle:         captions("Open Sans", 24, "#FFFFFF", "#2563EBB3", "bottom"),
			OverlayColor:         model.Ptr("#2563EB22"),
		},
		{
			ID:                   "template6",
			Name:                 "Product Showcase",
			Description:          "Highlight your product features with this dynamic template",
			AspectRatio:          model.AspectRatioSquare,
			SuitableContentTypes: []model.ContentType{model.ContentTypePromotional},
			CaptionStyle:         captions("Montserrat", 28, "#FFFFFF", "#3B82F6B3", "bottom"),
			OverlayColor:         model.Ptr("#3B82F633"),
		},
	}
}

func captions(font string, size int, color, background, position string) model.CaptionStyle {
	return model.CaptionStyle{
		FontFamily:      font,
		FontSize:        size,
		FontColor:       color,
		BackgroundColor: background,
		Position:        position,
	}
}

// Seed upserts the default catalogue. Running it twice is harmless.
func Seed(ctx context.Context, repo templaterepo.Repository) error {
	for _, t := range DefaultTemplates() {
		if err := repo.Upsert(ctx, &t); err != nil {
			return err
		}
	}
	return nil
}
