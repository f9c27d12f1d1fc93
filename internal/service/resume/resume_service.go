package resume

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/converters"
	"github.com/feichai0017/interview-practice/pkg/queue"
)

var (
	ErrTaskNotFound     = queue.ErrTaskNotFound
	ErrTaskNotCompleted = errors.New("task is not completed")
	ErrNoResumeText     = errors.New("no resume text for this session")
)

type ResumeProcessor interface {
	// ExtractResume runs the pipeline inline using the session's extraction state.
	ExtractResume(ctx context.Context, sessionID string, doc models.RawDocument) (*models.ExtractionResult, error)
	// Progress returns the session's last known extraction progress.
	Progress(sessionID string) (models.ExtractionProgress, bool)
	SubmitResume(ctx context.Context, sessionID string, file multipart.File, header *multipart.FileHeader) (*models.ProcessingTask, error)
	SubmitBatch(ctx context.Context, sessionID string, files []*multipart.FileHeader) ([]*models.ProcessingTask, error)
	HandleExtraction(ctx context.Context, task *queue.Task) error
	GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	GetProcessedResume(ctx context.Context, taskID string) (*converters.ProcessedResume, error)
	GetResumeText(ctx context.Context, sessionID string) (string, error)
	CancelTask(ctx context.Context, taskID string) error
	CleanupUploads(ctx context.Context) error
}
