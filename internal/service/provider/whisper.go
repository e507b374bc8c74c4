package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/service/common"
	"github.com/Taichi-iskw/yt-shorts/internal/storage"
)

const (
	defaultWindowSeconds = 30.0
	// a trailing group shorter than this is folded into the previous segment
	minTailSeconds = 5.0
)

type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// WhisperAnalyzer segments content by grouping Whisper transcript segments
// into clip-sized windows
type WhisperAnalyzer struct {
	cmdRunner common.CmdRunner
	store     storage.ObjectStore
	model     string
}

// NewWhisperAnalyzer creates a WhisperAnalyzer with the default CmdRunner
func NewWhisperAnalyzer(store storage.ObjectStore, whisperModel string) *WhisperAnalyzer {
	return NewWhisperAnalyzerWithCmdRunner(common.NewCmdRunner(), store, whisperModel)
}

// NewWhisperAnalyzerWithCmdRunner creates a WhisperAnalyzer with custom CmdRunner (for testing)
func NewWhisperAnalyzerWithCmdRunner(cmdRunner common.CmdRunner, store storage.ObjectStore, whisperModel string) *WhisperAnalyzer {
	if whisperModel == "" {
		whisperModel = "base"
	}
	return &WhisperAnalyzer{
		cmdRunner: cmdRunner,
		store:     store,
		model:     whisperModel,
	}
}

// Analyze transcribes the source media and groups the transcript into candidate segments
func (a *WhisperAnalyzer) Analyze(ctx context.Context, content model.ContentUpload) (*model.ContentAnalysisResult, error) {
	sourcePath, err := a.store.Resolve(content.SourceRef)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "ytshorts-whisper-*")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	args := []string{
		sourcePath,
		"--model", a.model,
		"--output_format", "json",
		"--output_dir", tempDir,
		"--temperature", "0",
	}
	if _, err := a.cmdRunner.Run(ctx, "whisper", args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.Wrap(markTransient(err), apperrors.CodeExternal, a.formatWhisperError(err, sourcePath))
	}

	baseName := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	data, err := os.ReadFile(filepath.Join(tempDir, baseName+".json"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "failed to read whisper output")
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "failed to parse whisper output")
	}

	window := defaultWindowSeconds
	if content.PreferredDuration != nil {
		window = float64(*content.PreferredDuration)
	}

	return &model.ContentAnalysisResult{
		ContentID: content.ID,
		Segments:  groupSegments(content.ID, out.Segments, content.DurationSeconds, window),
	}, nil
}

// groupSegments merges consecutive transcript pieces until each group spans at
// least window seconds. Bounds are clipped to [0, duration].
func groupSegments(contentID string, parts []whisperSegment, duration, window float64) []model.VideoSegment {
	var (
		out  []model.VideoSegment
		cur  *model.VideoSegment
		text []string
	)

	flush := func() {
		cur.Transcript = strings.Join(text, " ")
		cur.Position = len(out)
		out = append(out, *cur)
		cur, text = nil, nil
	}

	for _, p := range parts {
		start := max(p.Start, 0)
		end := min(p.End, duration)
		if end <= start {
			continue
		}
		if cur == nil {
			cur = &model.VideoSegment{ContentID: contentID, StartTime: start, EndTime: end}
		} else {
			cur.EndTime = max(cur.EndTime, end)
		}
		if t := strings.TrimSpace(p.Text); t != "" {
			text = append(text, t)
		}
		if cur.Duration() >= window {
			flush()
		}
	}

	if cur != nil {
		if n := len(out); n > 0 && cur.Duration() < minTailSeconds {
			out[n-1].EndTime = cur.EndTime
			if len(text) > 0 {
				out[n-1].Transcript = strings.TrimSpace(out[n-1].Transcript + " " + strings.Join(text, " "))
			}
		} else {
			flush()
		}
	}
	return out
}

// formatWhisperError provides user-friendly error messages for Whisper failures
func (a *WhisperAnalyzer) formatWhisperError(err error, sourcePath string) string {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "executable file not found"):
		return "Whisper is not installed. Please install OpenAI Whisper: pip install openai-whisper"
	case strings.Contains(errMsg, "No module named"):
		return "Whisper dependencies missing. Please reinstall: pip install --upgrade openai-whisper"
	case strings.Contains(errMsg, "not enough memory") || strings.Contains(errMsg, "OutOfMemoryError"):
		return fmt.Sprintf("insufficient memory for model '%s'. Try using a smaller model (tiny, base, small)", a.model)
	case strings.Contains(errMsg, "Could not load model"):
		return fmt.Sprintf("failed to load Whisper model '%s'. The model may need to be downloaded on first use", a.model)
	case strings.Contains(errMsg, "No such file"):
		return fmt.Sprintf("media file not found: %s", filepath.Base(sourcePath))
	default:
		return fmt.Sprintf("transcription failed with model '%s'", a.model)
	}
}
