package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-shorts/cmd/app"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// templateCmd represents the template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Browse presentation templates",
}

// templateListCmd lists the catalogue
var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		return withServices(func(ctx context.Context, services *app.Services) error {
			templates, err := services.Templates.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}
			return printTemplates(cmd, format, templates)
		})
	},
}

// templateRecommendCmd matches templates to a content type
var templateRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "List templates suited to a content type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		rawType, _ := cmd.Flags().GetString("type")
		rawAspect, _ := cmd.Flags().GetString("aspect-ratio")

		contentType, err := model.ParseContentType(rawType)
		if err != nil {
			return err
		}
		var aspect *model.AspectRatio
		if rawAspect != "" {
			ar, err := model.ParseAspectRatio(rawAspect)
			if err != nil {
				return err
			}
			aspect = &ar
		}

		return withServices(func(ctx context.Context, services *app.Services) error {
			templates, err := services.Templates.Recommend(ctx, contentType, aspect)
			if err != nil {
				return fmt.Errorf("failed to recommend templates: %w", err)
			}
			if len(templates) == 0 && format != "json" {
				cmd.Printf("No templates suit %s content\n", contentType)
				return nil
			}
			return printTemplates(cmd, format, templates)
		})
	},
}

func printTemplates(cmd *cobra.Command, format string, templates []model.VideoTemplate) error {
	if format == "json" {
		return printJSON(cmd, templates)
	}

	for _, t := range templates {
		types := make([]string, len(t.SuitableContentTypes))
		for i, ct := range t.SuitableContentTypes {
			types[i] = string(ct)
		}
		cmd.Printf("%-10s %-22s %-5s %s\n", t.ID, t.Name, t.AspectRatio, strings.Join(types, ", "))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateRecommendCmd)

	templateListCmd.Flags().String("format", "text", "Output format (text, json)")

	templateRecommendCmd.Flags().String("format", "text", "Output format (text, json)")
	templateRecommendCmd.Flags().String("type", "", "Content type to match")
	templateRecommendCmd.Flags().String("aspect-ratio", "", "Only templates with this aspect ratio")
	templateRecommendCmd.MarkFlagRequired("type")
}
