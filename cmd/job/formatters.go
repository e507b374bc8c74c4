package job

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/model"
)

// Formatter defines interface for output formatting
type Formatter interface {
	Format(jobs []*model.VideoProcessingResult) (string, error)
}

// TextFormatter formats output as plain text
type TextFormatter struct{}

// Format formats jobs as plain text, one block per job
func (f *TextFormatter) Format(jobs []*model.VideoProcessingResult) (string, error) {
	var output strings.Builder

	for i, job := range jobs {
		if i > 0 {
			output.WriteString("---\n")
		}
		output.WriteString(fmt.Sprintf("Job ID: %s\n", job.ID))
		output.WriteString(fmt.Sprintf("Content ID: %s\n", job.ContentID))
		output.WriteString(fmt.Sprintf("Template: %s\n", job.TemplateID))
		output.WriteString(fmt.Sprintf("Status: %s\n", job.Status))
		output.WriteString(fmt.Sprintf("Segments: %s\n", strings.Join(job.SegmentIDs, ", ")))
		writeOptional(&output, "Preview", job.PreviewRef)
		writeOptional(&output, "Final", job.FinalRef)
		writeOptional(&output, "Error", job.ErrorMessage)
		if job.Cancelled {
			output.WriteString("Cancelled: yes\n")
		}
		for _, w := range job.Warnings {
			output.WriteString(fmt.Sprintf("Warning: %s\n", w))
		}
		if n := len(job.PreviewHistory); n > 0 {
			output.WriteString(fmt.Sprintf("Earlier Previews: %d\n", n))
		}
		output.WriteString(fmt.Sprintf("Updated At: %s\n", job.UpdatedAt.Format(time.RFC3339)))
	}

	return output.String(), nil
}

func writeOptional(b *strings.Builder, label string, value *string) {
	if value != nil && *value != "" {
		b.WriteString(fmt.Sprintf("%s: %s\n", label, *value))
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

// Format formats a single job as an object and several as an array
func (f *JSONFormatter) Format(jobs []*model.VideoProcessingResult) (string, error) {
	var v any = jobs
	if len(jobs) == 1 {
		v = jobs[0]
	}

	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(jsonBytes), nil
}

// GetFormatter returns the appropriate formatter based on format string
func GetFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "text", "txt":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
