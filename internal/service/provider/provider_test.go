package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCmdRunner for testing
type mockCmdRunner struct {
	mock.Mock
}

func (m *mockCmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	argsMock := m.Called(ctx, name, args)
	if argsMock.Get(0) == nil {
		return nil, argsMock.Error(1)
	}
	return argsMock.Get(0).([]byte), argsMock.Error(1)
}

func TestAwait(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		call     func(ctx context.Context) (string, error)
		cancel   bool
		want     string
		wantCode string
	}{
		{
			name:    "returns value",
			timeout: time.Second,
			call:    func(ctx context.Context) (string, error) { return "previews/a.mp4", nil },
			want:    "previews/a.mp4",
		},
		{
			name:    "deadline becomes external failure",
			timeout: 20 * time.Millisecond,
			call: func(ctx context.Context) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantCode: apperrors.CodeExternal,
		},
		{
			name:    "call that ignores its context still times out",
			timeout: 20 * time.Millisecond,
			call: func(ctx context.Context) (string, error) {
				time.Sleep(200 * time.Millisecond)
				return "late", nil
			},
			wantCode: apperrors.CodeExternal,
		},
		{
			name:    "parent cancellation",
			timeout: time.Second,
			cancel:  true,
			call: func(ctx context.Context) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantCode: apperrors.CodeCancelled,
		},
		{
			name:     "plain error is wrapped",
			timeout:  time.Second,
			call:     func(ctx context.Context) (string, error) { return "", errors.New("boom") },
			wantCode: apperrors.CodeExternal,
		},
		{
			name:    "classified error passes through",
			timeout: time.Second,
			call: func(ctx context.Context) (string, error) {
				return "", apperrors.New(apperrors.CodeInvalidArg, "render needs at least one segment")
			},
			wantCode: apperrors.CodeInvalidArg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(10 * time.Millisecond)
					cancel()
				}()
			}

			got, err := Await(ctx, tt.timeout, "render", tt.call)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAwait_TimeoutMessage(t *testing.T) {
	_, err := Await(context.Background(), 10*time.Millisecond, "analysis", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis timed out after 10ms")
}

func TestIsRetryable(t *testing.T) {
	transient := markTransient(errors.New("ffmpeg: exit status 1: Connection reset by peer"))
	assert.True(t, IsRetryable(transient))
	assert.True(t, IsRetryable(apperrors.Wrap(transient, apperrors.CodeExternal, "ffmpeg render failed")))

	assert.False(t, IsRetryable(markTransient(errors.New("Invalid data found when processing input"))))
	assert.False(t, IsRetryable(nil))
}
