package workers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/jobs"
	"github.com/killallgit/delivery-api/internal/services/pipeline"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) EnqueueJob(ctx context.Context, payload models.JobPayload) (*models.Job, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockJobService) GetJob(ctx context.Context, publicID string) (*models.Job, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockJobService) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Job), args.Error(1)
}

func (m *MockJobService) ClaimNextJob(ctx context.Context, workerID string) (*models.Job, error) {
	args := m.Called(ctx, workerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockJobService) UpdateProgress(ctx context.Context, jobID uint, progress models.Progress) error {
	args := m.Called(ctx, jobID, progress)
	return args.Error(0)
}

func (m *MockJobService) CompleteJob(ctx context.Context, jobID uint, outputDir string, exports []string) error {
	args := m.Called(ctx, jobID, outputDir, exports)
	return args.Error(0)
}

func (m *MockJobService) FailJob(ctx context.Context, jobID uint, err error) error {
	args := m.Called(ctx, jobID, err)
	return args.Error(0)
}

func (m *MockJobService) RecoverInterrupted(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobService) CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type processorFunc func(ctx context.Context, job *models.Job) error

func (f processorFunc) ProcessJob(ctx context.Context, job *models.Job) error {
	return f(ctx, job)
}

type fakeRunner struct {
	result *pipeline.Result
	err    error
	got    pipeline.Request
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.got = req
	if req.OnProgress != nil {
		req.OnProgress(pipeline.StepASR, 1, 1, pipeline.StepASR.Message())
	}
	return f.result, f.err
}

func testJob() *models.Job {
	job := &models.Job{
		PublicID: "job-1",
		Status:   models.JobStatusRunning,
		Payload: models.JobPayload{
			Name:     "客户A",
			Inputs:   []string{"https://v.douyin.com/abc/"},
			Platform: models.PlatformDouyin,
			UseCache: true,
		},
	}
	job.ID = 1
	return job
}

func TestWorker_ProcessNextJob(t *testing.T) {
	ctx := context.Background()

	t.Run("empty queue", func(t *testing.T) {
		svc := new(MockJobService)
		svc.On("ClaimNextJob", ctx, "worker-1").Return(nil, jobs.ErrNoJobsAvailable)

		w := NewWorker("worker-1", svc, processorFunc(func(context.Context, *models.Job) error {
			t.Fatal("processor must not run")
			return nil
		}), time.Second)

		processed, err := w.processNextJob(ctx)
		assert.False(t, processed)
		assert.NoError(t, err)
	})

	t.Run("successful job", func(t *testing.T) {
		svc := new(MockJobService)
		svc.On("ClaimNextJob", ctx, "worker-1").Return(testJob(), nil)

		var ran string
		w := NewWorker("worker-1", svc, processorFunc(func(_ context.Context, job *models.Job) error {
			ran = job.PublicID
			return nil
		}), time.Second)

		processed, err := w.processNextJob(ctx)
		assert.True(t, processed)
		assert.NoError(t, err)
		assert.Equal(t, "job-1", ran)
		svc.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed job is recorded", func(t *testing.T) {
		boom := errors.New("asr failed")
		svc := new(MockJobService)
		svc.On("ClaimNextJob", ctx, "worker-1").Return(testJob(), nil)
		svc.On("FailJob", mock.Anything, uint(1), boom).Return(nil)

		w := NewWorker("worker-1", svc, processorFunc(func(context.Context, *models.Job) error {
			return boom
		}), time.Second)

		processed, err := w.processNextJob(ctx)
		assert.True(t, processed)
		assert.ErrorIs(t, err, boom)
		svc.AssertExpectations(t)
	})
}

func TestWorker_StartStop(t *testing.T) {
	svc := new(MockJobService)
	svc.On("RecoverInterrupted", mock.Anything).Return(int64(0), nil)
	svc.On("ClaimNextJob", mock.Anything, "worker-1").Return(nil, jobs.ErrNoJobsAvailable).Maybe()

	w := NewWorker("worker-1", svc, processorFunc(func(context.Context, *models.Job) error { return nil }), 10*time.Millisecond)
	w.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	w.Stop()
	w.Stop()

	svc.AssertCalled(t, "RecoverInterrupted", mock.Anything)
}

func TestDeliveryProcessor_ProcessJob(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "2024-03-09_客户A")

	runner := &fakeRunner{result: &pipeline.Result{
		OutputDir: out,
		Results: []models.TaskResult{{
			Item:       &models.VideoItem{InputValue: "https://v.douyin.com/abc/", Title: "t"},
			Transcript: models.Transcript{Text: "文案", Raw: models.RawPayload{"text": "文案"}},
		}},
	}}

	svc := new(MockJobService)
	svc.On("UpdateProgress", ctx, uint(1), models.Progress{Step: "asr", Current: 1, Total: 1, Message: "语音识别"}).Return(nil)
	svc.On("CompleteJob", ctx, uint(1), out, []string{
		filepath.Join(out, "客户A.docx"),
	}).Return(nil)

	p := NewDeliveryProcessor(svc, runner, DeliveryConfig{OutputRoot: "outputs", TempRoot: "tmp"})
	require.NoError(t, p.ProcessJob(ctx, testJob()))

	assert.Equal(t, "客户A", runner.got.BatchName)
	assert.Equal(t, models.PlatformDouyin, runner.got.PlatformHint)
	assert.True(t, runner.got.UseCache)
	assert.Equal(t, "outputs", runner.got.OutputRoot)
	assert.FileExists(t, filepath.Join(out, "客户A.docx"))
	svc.AssertExpectations(t)
}

func TestDeliveryProcessor_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown export format", func(t *testing.T) {
		job := testJob()
		job.Payload.Exports = []string{"pdf"}
		runner := &fakeRunner{}

		err := NewDeliveryProcessor(new(MockJobService), runner, DeliveryConfig{}).ProcessJob(ctx, job)
		assert.Error(t, err)
		assert.Empty(t, runner.got.BatchName)
	})

	t.Run("pipeline error", func(t *testing.T) {
		boom := errors.New("resolution failed")
		svc := new(MockJobService)
		svc.On("UpdateProgress", ctx, uint(1), mock.Anything).Return(errors.New("db locked"))

		err := NewDeliveryProcessor(svc, &fakeRunner{err: boom}, DeliveryConfig{}).ProcessJob(ctx, testJob())
		assert.ErrorIs(t, err, boom)
		svc.AssertNotCalled(t, "CompleteJob", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
