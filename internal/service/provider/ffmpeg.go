package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/service/common"
	"github.com/Taichi-iskw/yt-shorts/internal/storage"
)

// encoding presets for the two passes
type encodeProfile struct {
	preset string
	crf    string
}

var (
	previewProfile = encodeProfile{preset: "veryfast", crf: "28"}
	finalProfile   = encodeProfile{preset: "medium", crf: "23"}
)

type cut struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// renderManifest is persisted under storage.KindRender so Finalize can
// rebuild the clip at full quality, possibly from another process
type renderManifest struct {
	JobID        string  `json:"job_id"`
	SourceRef    string  `json:"source_ref"`
	Cuts         []cut   `json:"cuts"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	OverlayColor *string `json:"overlay_color,omitempty"`
}

// FFmpegRenderer cuts, concatenates and reframes source media with ffmpeg
type FFmpegRenderer struct {
	cmdRunner common.CmdRunner
	store     storage.ObjectStore
}

// NewFFmpegRenderer creates a FFmpegRenderer with the default CmdRunner
func NewFFmpegRenderer(store storage.ObjectStore) *FFmpegRenderer {
	return NewFFmpegRendererWithCmdRunner(common.NewCmdRunner(), store)
}

// NewFFmpegRendererWithCmdRunner creates a FFmpegRenderer with custom CmdRunner (for testing)
func NewFFmpegRendererWithCmdRunner(cmdRunner common.CmdRunner, store storage.ObjectStore) *FFmpegRenderer {
	return &FFmpegRenderer{
		cmdRunner: cmdRunner,
		store:     store,
	}
}

// Render writes a manifest and a low-cost preview of the selected segments
func (r *FFmpegRenderer) Render(ctx context.Context, job RenderJob) (*RenderOutput, error) {
	if len(job.Segments) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "render needs at least one segment")
	}

	width, height := job.Template.AspectRatio.Dimensions()
	manifest := renderManifest{
		JobID:        job.JobID,
		SourceRef:    job.SourceRef,
		Width:        width,
		Height:       height,
		OverlayColor: job.Template.OverlayColor,
	}
	for _, seg := range job.Segments {
		manifest.Cuts = append(manifest.Cuts, cut{Start: seg.StartTime, End: seg.EndTime})
	}

	manifestRef, manifestPath, err := r.store.Allocate(storage.KindRender, ".json")
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode render manifest")
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to write render manifest")
	}

	previewRef, err := r.encode(ctx, manifest, storage.KindPreview, previewProfile)
	if err != nil {
		r.store.Delete(manifestRef) //nolint:errcheck
		return nil, err
	}

	return &RenderOutput{PreviewRef: previewRef, RenderJobRef: manifestRef}, nil
}

// Finalize re-encodes the manifest's cuts at final quality
func (r *FFmpegRenderer) Finalize(ctx context.Context, renderJobRef string) (string, error) {
	manifestPath, err := r.store.Resolve(renderJobRef)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeNotFound, "render manifest not found")
	}

	var manifest renderManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to parse render manifest")
	}

	return r.encode(ctx, manifest, storage.KindFinal, finalProfile)
}

func (r *FFmpegRenderer) encode(ctx context.Context, manifest renderManifest, kind string, profile encodeProfile) (string, error) {
	sourcePath, err := r.store.Resolve(manifest.SourceRef)
	if err != nil {
		return "", err
	}

	tempDir, err := os.MkdirTemp("", "ytshorts-render-*")
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	listPath := filepath.Join(tempDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(sourcePath, manifest.Cuts)), 0644); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to write concat list")
	}

	ref, outPath, err := r.store.Allocate(kind, ".mp4")
	if err != nil {
		return "", err
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vf", videoFilter(manifest.Width, manifest.Height, manifest.OverlayColor),
		"-c:v", "libx264",
		"-preset", profile.preset,
		"-crf", profile.crf,
		"-c:a", "aac",
		"-b:a", "128k",
		outPath,
	}
	if _, err := r.cmdRunner.Run(ctx, "ffmpeg", args...); err != nil {
		os.Remove(outPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.Wrap(markTransient(err), apperrors.CodeExternal, formatFFmpegError(err))
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExternal, "ffmpeg produced no output")
	}
	return ref, nil
}

// concatList builds an ffmpeg concat demuxer script cutting one file at several points
func concatList(sourcePath string, cuts []cut) string {
	quoted := "'" + strings.ReplaceAll(sourcePath, "'", `'\''`) + "'"

	var b strings.Builder
	for _, c := range cuts {
		fmt.Fprintf(&b, "file %s\n", quoted)
		fmt.Fprintf(&b, "inpoint %s\n", strconv.FormatFloat(c.Start, 'f', 3, 64))
		fmt.Fprintf(&b, "outpoint %s\n", strconv.FormatFloat(c.End, 'f', 3, 64))
	}
	return b.String()
}

// videoFilter letterboxes into the template frame and applies the overlay tint
func videoFilter(width, height int, overlay *string) string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		width, height, width, height,
	)
	if overlay != nil && *overlay != "" {
		filter += fmt.Sprintf(",drawbox=x=0:y=0:w=iw:h=ih:color=%s:t=fill", *overlay)
	}
	return filter
}

func formatFFmpegError(err error) string {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "executable file not found"):
		return "ffmpeg is not installed or not on PATH"
	case strings.Contains(errMsg, "Invalid data found"):
		return "source media is corrupted or in an unsupported format"
	case strings.Contains(errMsg, "No space left"):
		return "not enough disk space to render"
	default:
		return "ffmpeg render failed"
	}
}

// FFprobe reads media duration with ffprobe
type FFprobe struct {
	cmdRunner common.CmdRunner
}

// NewFFprobe creates a FFprobe; a nil runner uses os/exec
func NewFFprobe(cmdRunner common.CmdRunner) *FFprobe {
	if cmdRunner == nil {
		cmdRunner = common.NewCmdRunner()
	}
	return &FFprobe{cmdRunner: cmdRunner}
}

// Duration returns the container duration in seconds
func (p *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.cmdRunner.Run(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeExternal, "ffprobe failed")
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || duration <= 0 {
		return 0, apperrors.Newf(apperrors.CodeExternal, "ffprobe returned no usable duration: %q", strings.TrimSpace(string(out)))
	}
	return duration, nil
}
