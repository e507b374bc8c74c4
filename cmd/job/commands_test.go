package job

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/Taichi-iskw/yt-shorts/internal/service/orchestrator"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock job service
type mockJobService struct {
	CreateRequestFunc func(ctx context.Context, req model.VideoProcessingRequest, opts orchestrator.Options) (*model.VideoProcessingResult, error)
	GetFunc           func(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error)
	ListByContentFunc func(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error)
	ApproveFunc       func(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	RerenderFunc      func(ctx context.Context, id string, segmentIDs []string) (*model.VideoProcessingResult, error)
	CancelFunc        func(ctx context.Context, id string) (*model.VideoProcessingResult, error)
	waited            int
}

func (m *mockJobService) CreateRequest(ctx context.Context, req model.VideoProcessingRequest, opts orchestrator.Options) (*model.VideoProcessingResult, error) {
	return m.CreateRequestFunc(ctx, req, opts)
}

func (m *mockJobService) Get(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockJobService) List(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error) {
	return m.ListFunc(ctx, limit, offset)
}

func (m *mockJobService) ListByContent(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error) {
	return m.ListByContentFunc(ctx, contentID)
}

func (m *mockJobService) Approve(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	return m.ApproveFunc(ctx, id)
}

func (m *mockJobService) Rerender(ctx context.Context, id string, segmentIDs []string) (*model.VideoProcessingResult, error) {
	return m.RerenderFunc(ctx, id, segmentIDs)
}

func (m *mockJobService) Cancel(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
	return m.CancelFunc(ctx, id)
}

func (m *mockJobService) Wait() { m.waited++ }

func reviewJob(id string) *model.VideoProcessingResult {
	return &model.VideoProcessingResult{
		ID:         id,
		ContentID:  "c1",
		TemplateID: "template1",
		SegmentIDs: []string{"seg-1", "seg-2"},
		Status:     model.StatusReview,
		PreviewRef: model.Ptr("previews/p1.mp4"),
		UpdatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func run(cmd *cobra.Command, stdin string, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCreateCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		setupMock      func(*mockJobService)
		expectedOutput string
		wantWait       bool
		wantErr        bool
	}{
		{
			name: "job runs to review",
			args: []string{"c1", "--template", "template1", "--segments", "seg-1,seg-2"},
			setupMock: func(m *mockJobService) {
				m.CreateRequestFunc = func(ctx context.Context, req model.VideoProcessingRequest, opts orchestrator.Options) (*model.VideoProcessingResult, error) {
					assert.Equal(t, []string{"seg-1", "seg-2"}, req.SelectedSegmentIDs)
					assert.False(t, opts.AllowTemplateMismatch)
					return &model.VideoProcessingResult{ID: "job-1", Status: model.StatusPending}, nil
				}
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					return reviewJob(id), nil
				}
			},
			expectedOutput: "Preview: previews/p1.mp4",
			wantWait:       true,
		},
		{
			name: "template mismatch allowed",
			args: []string{"c1", "--template", "template6", "--segments", "seg-1", "--allow-template-mismatch", "--format", "json"},
			setupMock: func(m *mockJobService) {
				m.CreateRequestFunc = func(ctx context.Context, req model.VideoProcessingRequest, opts orchestrator.Options) (*model.VideoProcessingResult, error) {
					assert.True(t, opts.AllowTemplateMismatch)
					return &model.VideoProcessingResult{ID: "job-2"}, nil
				}
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					job := reviewJob(id)
					job.Warnings = []string{"template template6 is not suitable for tutorial content"}
					return job, nil
				}
			},
			expectedOutput: `"warnings": [`,
			wantWait:       true,
		},
		{
			name:           "dry run mode",
			args:           []string{"c1", "--template", "template1", "--segments", "seg-1", "--dry-run"},
			setupMock:      func(m *mockJobService) {},
			expectedOutput: "DRY RUN",
		},
		{
			name:      "missing template",
			args:      []string{"c1", "--segments", "seg-1"},
			setupMock: func(m *mockJobService) {},
			wantErr:   true,
		},
		{
			name:      "missing segments",
			args:      []string{"c1", "--template", "template1"},
			setupMock: func(m *mockJobService) {},
			wantErr:   true,
		},
		{
			name:      "missing content ID",
			args:      []string{"--template", "template1", "--segments", "seg-1"},
			setupMock: func(m *mockJobService) {},
			wantErr:   true,
		},
		{
			name: "content already has an active job",
			args: []string{"c1", "--template", "template1", "--segments", "seg-1"},
			setupMock: func(m *mockJobService) {
				m.CreateRequestFunc = func(ctx context.Context, req model.VideoProcessingRequest, opts orchestrator.Options) (*model.VideoProcessingResult, error) {
					return nil, errors.New(errors.CodeConflict, "content c1 already has an active job")
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockJobService{}
			tt.setupMock(mockService)

			out, err := run(NewCreateCommand(mockService), "", tt.args...)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.expectedOutput)
			assert.Equal(t, tt.wantWait, mockService.waited == 1)
		})
	}
}

func TestGetCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		setupMock      func(*mockJobService)
		expectedOutput string
		wantErr        bool
	}{
		{
			name: "text format",
			args: []string{"job-1"},
			setupMock: func(m *mockJobService) {
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					return reviewJob(id), nil
				}
			},
			expectedOutput: "Status: review",
		},
		{
			name: "json format",
			args: []string{"job-1", "--format", "json"},
			setupMock: func(m *mockJobService) {
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					return reviewJob(id), nil
				}
			},
			expectedOutput: `"status": "review"`,
		},
		{
			name: "failed job shows its error",
			args: []string{"job-1"},
			setupMock: func(m *mockJobService) {
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					job := reviewJob(id)
					job.Status = model.StatusFailed
					job.PreviewRef = nil
					job.ErrorMessage = model.Ptr("analysis timed out after 5m0s")
					return job, nil
				}
			},
			expectedOutput: "Error: analysis timed out after 5m0s",
		},
		{
			name: "unsupported format",
			args: []string{"job-1", "--format", "yaml"},
			setupMock: func(m *mockJobService) {
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) { return reviewJob(id), nil }
			},
			wantErr: true,
		},
		{
			name: "not found",
			args: []string{"missing"},
			setupMock: func(m *mockJobService) {
				m.GetFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					return nil, errors.Newf(errors.CodeNotFound, "job %s not found", id)
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockJobService{}
			tt.setupMock(mockService)

			out, err := run(NewGetCommand(mockService), "", tt.args...)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.expectedOutput)
		})
	}
}

func TestListCommand(t *testing.T) {
	t.Run("by content", func(t *testing.T) {
		mockService := &mockJobService{
			ListByContentFunc: func(ctx context.Context, contentID string) ([]*model.VideoProcessingResult, error) {
				assert.Equal(t, "c1", contentID)
				return []*model.VideoProcessingResult{reviewJob("job-2"), reviewJob("job-1")}, nil
			},
		}

		out, err := run(NewListCommand(mockService), "", "--content", "c1")
		require.NoError(t, err)
		assert.Contains(t, out, "Job ID: job-2")
		assert.Contains(t, out, "Job ID: job-1")
		assert.Contains(t, out, "---")
	})

	t.Run("paged", func(t *testing.T) {
		mockService := &mockJobService{
			ListFunc: func(ctx context.Context, limit, offset int) ([]*model.VideoProcessingResult, error) {
				assert.Equal(t, 5, limit)
				assert.Equal(t, 10, offset)
				return nil, nil
			},
		}

		out, err := run(NewListCommand(mockService), "", "--limit", "5", "--offset", "10")
		require.NoError(t, err)
		assert.Contains(t, out, "No jobs found")
	})
}

func TestApproveCommand(t *testing.T) {
	mockService := &mockJobService{
		ApproveFunc: func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
			job := reviewJob(id)
			job.Status = model.StatusCompleted
			job.FinalRef = model.Ptr("finals/f1.mp4")
			return job, nil
		},
	}

	out, err := run(NewApproveCommand(mockService), "", "job-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Job approved successfully")
	assert.Contains(t, out, "Final: finals/f1.mp4")

	mockService.ApproveFunc = func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
		return nil, errors.New(errors.CodeInvalidArg, "job is not in review")
	}
	_, err = run(NewApproveCommand(mockService), "", "job-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to approve job")
}

func TestRerenderCommand(t *testing.T) {
	mockService := &mockJobService{
		RerenderFunc: func(ctx context.Context, id string, segmentIDs []string) (*model.VideoProcessingResult, error) {
			assert.Equal(t, []string{"seg-3", "seg-1"}, segmentIDs)
			job := reviewJob(id)
			job.Status = model.StatusProcessing
			return job, nil
		},
		GetFunc: func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
			job := reviewJob(id)
			job.PreviewRef = model.Ptr("previews/p2.mp4")
			job.PreviewHistory = []model.ArchivedPreview{{PreviewRef: "previews/p1.mp4"}}
			return job, nil
		},
	}

	out, err := run(NewRerenderCommand(mockService), "", "job-1", "--segments", "seg-3,seg-1")
	require.NoError(t, err)
	assert.Equal(t, 1, mockService.waited)
	assert.Contains(t, out, "Preview: previews/p2.mp4")
	assert.Contains(t, out, "Earlier Previews: 1")
}

func TestCancelCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		stdin          string
		wantCalled     bool
		expectedOutput string
	}{
		{name: "forced", args: []string{"job-1", "--force"}, wantCalled: true, expectedOutput: "Job job-1 cancelled"},
		{name: "confirmed", args: []string{"job-1"}, stdin: "y\n", wantCalled: true, expectedOutput: "Job job-1 cancelled"},
		{name: "declined", args: []string{"job-1"}, stdin: "n\n", expectedOutput: "Cancellation aborted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockService := &mockJobService{
				CancelFunc: func(ctx context.Context, id string) (*model.VideoProcessingResult, error) {
					called = true
					return &model.VideoProcessingResult{ID: id, Status: model.StatusFailed, Cancelled: true}, nil
				},
			}

			out, err := run(NewCancelCommand(mockService), tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalled, called)
			assert.Contains(t, out, tt.expectedOutput)
		})
	}
}
