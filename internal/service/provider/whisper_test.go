package provider

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*storage.LocalStore, string) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "talk.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0644))
	ref, err := store.Import(storage.KindSource, src)
	require.NoError(t, err)
	return store, ref
}

func outputDirArg(args []string) string {
	for i, a := range args {
		if a == "--output_dir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestWhisperAnalyzer_Analyze(t *testing.T) {
	store, ref := newTestStore(t)
	sourcePath, err := store.Resolve(ref)
	require.NoError(t, err)

	runner := &mockCmdRunner{}
	runner.On("Run", mock.Anything, "whisper", mock.Anything).
		Run(func(args mock.Arguments) {
			cmdArgs := args.Get(2).([]string)
			out := whisperOutput{
				Text: "Welcome. Today we learn Go. Goroutines are cheap. Thanks.",
				Segments: []whisperSegment{
					{Start: 0, End: 12, Text: " Welcome."},
					{Start: 12, End: 31, Text: " Today we learn Go."},
					{Start: 31, End: 62, Text: " Goroutines are cheap."},
					{Start: 62, End: 64, Text: " Thanks."},
				},
			}
			data, _ := json.Marshal(out)
			base := filepath.Base(sourcePath)
			base = base[:len(base)-len(filepath.Ext(base))]
			_ = os.WriteFile(filepath.Join(outputDirArg(cmdArgs), base+".json"), data, 0644)
		}).
		Return([]byte{}, nil)

	analyzer := NewWhisperAnalyzerWithCmdRunner(runner, store, "tiny")
	result, err := analyzer.Analyze(context.Background(), model.ContentUpload{
		ID:              "c1",
		SourceRef:       ref,
		DurationSeconds: 63,
	})
	require.NoError(t, err)

	require.Len(t, result.Segments, 2)
	assert.Equal(t, 0.0, result.Segments[0].StartTime)
	assert.Equal(t, 31.0, result.Segments[0].EndTime)
	assert.Equal(t, "Welcome. Today we learn Go.", result.Segments[0].Transcript)
	// the short tail is folded in and clipped to the content duration
	assert.Equal(t, 31.0, result.Segments[1].StartTime)
	assert.Equal(t, 63.0, result.Segments[1].EndTime)
	assert.Equal(t, "Goroutines are cheap. Thanks.", result.Segments[1].Transcript)
	assert.Equal(t, 1, result.Segments[1].Position)
	runner.AssertExpectations(t)
}

func TestWhisperAnalyzer_Errors(t *testing.T) {
	store, ref := newTestStore(t)

	runner := &mockCmdRunner{}
	runner.On("Run", mock.Anything, "whisper", mock.Anything).
		Return(nil, errors.New("whisper: exit status 1: OutOfMemoryError"))

	analyzer := NewWhisperAnalyzerWithCmdRunner(runner, store, "large")
	_, err := analyzer.Analyze(context.Background(), model.ContentUpload{ID: "c1", SourceRef: ref, DurationSeconds: 60})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternal, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "insufficient memory for model 'large'")
	assert.False(t, IsRetryable(err))

	_, err = analyzer.Analyze(context.Background(), model.ContentUpload{ID: "c1", SourceRef: "../escape", DurationSeconds: 60})
	assert.Equal(t, apperrors.CodeInvalidArg, apperrors.CodeOf(err))
}

func TestGroupSegments(t *testing.T) {
	parts := []whisperSegment{
		{Start: -1, End: 4, Text: "a"},
		{Start: 4, End: 4, Text: "empty"},
		{Start: 4, End: 9, Text: "b"},
		{Start: 9, End: 20, Text: "c"},
	}
	got := groupSegments("c1", parts, 15, 10)

	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].StartTime)
	assert.Equal(t, 15.0, got[0].EndTime)
	assert.Equal(t, "a b c", got[0].Transcript)
	for _, seg := range got {
		assert.NoError(t, seg.ValidateBounds(15))
	}
}
