package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/interview-practice/internal/agent"
	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/internal/service/extraction"
	"github.com/feichai0017/interview-practice/internal/utils/validator"
	"github.com/feichai0017/interview-practice/pkg/cache"
	"github.com/feichai0017/interview-practice/pkg/converters"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/queue"
	"github.com/feichai0017/interview-practice/pkg/session"
	"github.com/feichai0017/interview-practice/pkg/storage"
)

type ResumeService struct {
	pipeline  *extraction.Pipeline
	queue     queue.Queue
	storage   storage.Storage
	cache     cache.TextCache
	sessions  session.API
	validator *validator.DocumentValidator
	converter converters.ResumeConverter
	logger    logger.Logger
	config    *ServiceConfig

	mu sync.Mutex
	// running holds a state only while its extraction runs.
	running map[string]*models.ExtractionState
	// finished keeps the last outcome per session for ProgressRetention.
	finished map[string]finishedProgress
	now      func() time.Time
}

type finishedProgress struct {
	progress models.ExtractionProgress
	at       time.Time
}

type ServiceConfig struct {
	MaxFileSize     int64
	QueuePriority   int
	MaxConcurrent   int
	ProcessTimeout  time.Duration
	RetentionPeriod time.Duration
	// PreviewOnExtract forwards extracted text to the session API.
	PreviewOnExtract bool
	// ProgressRetention is how long the outcome of an inline extraction
	// stays readable through Progress.
	ProgressRetention time.Duration
	// MaxFinishedProgress caps the retained outcomes; the oldest go first.
	MaxFinishedProgress int
}

func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxFileSize:         models.MaxResumeSize,
		QueuePriority:       2,
		MaxConcurrent:       5,
		ProcessTimeout:      2 * time.Minute,
		RetentionPeriod:     24 * time.Hour,
		PreviewOnExtract:    true,
		ProgressRetention:   10 * time.Minute,
		MaxFinishedProgress: 1024,
	}
}

// Deps groups the collaborators of a ResumeService. Queue, Storage and
// Sessions may be nil when the corresponding feature is not used.
type Deps struct {
	Pipeline  *extraction.Pipeline
	Queue     queue.Queue
	Storage   storage.Storage
	Cache     cache.TextCache
	Sessions  session.API
	Validator *validator.DocumentValidator
}

func NewService(deps Deps, log logger.Logger, cfg *ServiceConfig) *ResumeService {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemoryCache()
	}
	if deps.Validator == nil {
		deps.Validator = validator.NewDocumentValidator(log, &validator.ValidatorConfig{
			MaxFileSize:  cfg.MaxFileSize,
			AllowedTypes: validator.DefaultConfig().AllowedTypes,
			MaxPageCount: validator.DefaultConfig().MaxPageCount,
		})
	}

	return &ResumeService{
		pipeline:  deps.Pipeline,
		queue:     deps.Queue,
		storage:   deps.Storage,
		cache:     deps.Cache,
		sessions:  deps.Sessions,
		validator: deps.Validator,
		converter: converters.NewJSONConverter(),
		logger:    log,
		config:    cfg,
		running:   make(map[string]*models.ExtractionState),
		finished:  make(map[string]finishedProgress),
		now:       time.Now,
	}
}

// NewPipeline builds the extraction pipeline on the factory's PDF parser.
func NewPipeline(factory *agent.ProcessorFactory, log logger.Logger, maxFileSize int64) (*extraction.Pipeline, error) {
	parser, err := factory.GetProcessor(models.PDFMediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to get pdf processor: %w", err)
	}
	return extraction.NewPipeline(parser, log.Named("extraction"), extraction.WithMaxFileSize(maxFileSize)), nil
}

// acquire registers a fresh state for sessionID unless one is already running.
func (s *ResumeService) acquire(sessionID string) (*models.ExtractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.running[sessionID]; busy {
		return nil, extraction.ErrExtractionInFlight
	}
	state := models.NewExtractionState(nil)
	s.running[sessionID] = state
	delete(s.finished, sessionID)
	return state, nil
}

// release drops the running state and keeps only its final snapshot.
func (s *ResumeService) release(sessionID string, state *models.ExtractionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, sessionID)
	s.finished[sessionID] = finishedProgress{progress: state.Snapshot(), at: s.now()}
	s.pruneFinished()
}

// pruneFinished drops expired outcomes, then the oldest ones over the cap.
// Callers hold s.mu.
func (s *ResumeService) pruneFinished() {
	now := s.now()
	for id, f := range s.finished {
		if s.expired(f, now) {
			delete(s.finished, id)
		}
	}

	limit := s.config.MaxFinishedProgress
	if limit <= 0 {
		return
	}
	for len(s.finished) > limit {
		var oldest string
		var oldestAt time.Time
		for id, f := range s.finished {
			if oldest == "" || f.at.Before(oldestAt) {
				oldest, oldestAt = id, f.at
			}
		}
		delete(s.finished, oldest)
	}
}

func (s *ResumeService) expired(f finishedProgress, now time.Time) bool {
	return s.config.ProgressRetention > 0 && now.Sub(f.at) > s.config.ProgressRetention
}

// ExtractResume extracts inline. A second call for the same session while
// one is running fails with extraction.ErrExtractionInFlight.
func (s *ResumeService) ExtractResume(ctx context.Context, sessionID string, doc models.RawDocument) (*models.ExtractionResult, error) {
	log := logger.FromContext(ctx, s.logger)
	log.Info("Starting resume extraction",
		logger.String("filename", doc.Filename),
		logger.Int64("size", doc.Size),
	)

	state, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	result, err := s.pipeline.Extract(ctx, state, doc)
	s.release(sessionID, state)
	if err != nil {
		return nil, err
	}

	s.afterExtraction(ctx, sessionID, result.Text)
	return result, nil
}

// Progress reports the running extraction of a session, or the outcome of
// its last one while that is still retained.
func (s *ResumeService) Progress(sessionID string) (models.ExtractionProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.running[sessionID]; ok {
		return state.Snapshot(), true
	}
	if f, ok := s.finished[sessionID]; ok {
		if !s.expired(f, s.now()) {
			return f.progress, true
		}
		delete(s.finished, sessionID)
	}
	return models.ExtractionProgress{Stage: models.StageIdle}, false
}

// afterExtraction caches the text and sends the preview. Neither can fail the extraction.
func (s *ResumeService) afterExtraction(ctx context.Context, sessionID, text string) {
	log := logger.FromContext(ctx, s.logger)

	if err := s.cache.Set(ctx, sessionID, text); err != nil {
		log.Warn("Failed to cache resume text", logger.Error(err))
	}

	if s.sessions == nil || !s.config.PreviewOnExtract {
		return
	}
	preview, err := s.sessions.PreviewInterview(ctx, text)
	if err != nil {
		log.Warn("Preview request failed", logger.Error(err))
		return
	}
	if preview.Success {
		log.Info("Resume preview received",
			logger.Int("skills", len(preview.Skills)),
			logger.Int("projects", len(preview.Projects)),
			logger.String("firstQuestion", preview.FirstQuestion),
		)
	}
}

// SubmitResume validates and stores an upload, then queues its extraction.
func (s *ResumeService) SubmitResume(
	ctx context.Context,
	sessionID string,
	file multipart.File,
	header *multipart.FileHeader,
) (*models.ProcessingTask, error) {
	log := logger.FromContext(ctx, s.logger)
	if s.queue == nil || s.storage == nil {
		return nil, fmt.Errorf("asynchronous extraction is not configured")
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	size := header.Size
	if int64(len(data)) > size {
		size = int64(len(data))
	}

	check := s.validator.Validate(header.Filename, size, data)
	if !check.IsValid {
		return nil, extraction.Rejected(check.FirstError().Message)
	}

	now := time.Now()
	taskID := uuid.New().String()
	mediaType := agent.DeclaredMediaType(header.Header.Get("Content-Type"), header.Filename)

	task := &models.ProcessingTask{
		ID:        taskID,
		SessionID: sessionID,
		Status:    models.StatusPending,
		Type:      queue.TaskTypeResumeExtract,
		Priority:  s.config.QueuePriority,
		Stage:     models.StageIdle,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: map[string]string{
			"filename":  header.Filename,
			"size":      strconv.FormatInt(size, 10),
			"mediaType": mediaType,
			"hash":      check.FileInfo.Hash,
		},
	}

	fileID, err := s.storage.Store(ctx, bytes.NewReader(data), storage.UploadKey(taskID, header.Filename))
	if err != nil {
		log.Error("Failed to store upload",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	queueTask := &queue.Task{
		ID:        taskID,
		SessionID: sessionID,
		Type:      task.Type,
		Priority:  task.Priority,
		Payload: map[string]interface{}{
			"fileId":   fileID,
			"filename": header.Filename,
		},
		Metadata:  task.Metadata,
		CreatedAt: now,
	}

	// The pending status must exist before a worker can pick the task up.
	if err := s.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:    taskID,
		Status:    queue.StatusPending,
		Stage:     string(models.StageIdle),
		StartedAt: now,
	}); err != nil {
		log.Error("Failed to save initial status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		log.Error("Failed to enqueue task",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Info("Resume extraction task created",
		logger.String("taskId", taskID),
		logger.String("filename", header.Filename),
	)
	return task, nil
}

// SubmitBatch submits every file concurrently. Tasks created before the
// first failure are returned together with the error.
func (s *ResumeService) SubmitBatch(ctx context.Context, sessionID string, files []*multipart.FileHeader) ([]*models.ProcessingTask, error) {
	tasks := make([]*models.ProcessingTask, 0, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if s.config.MaxConcurrent > 0 {
		g.SetLimit(s.config.MaxConcurrent)
	}

	for _, header := range files {
		header := header
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			task, err := s.SubmitResume(gctx, sessionID, file, header)
			if err != nil {
				return fmt.Errorf("failed to submit file %s: %w", header.Filename, err)
			}

			mu.Lock()
			tasks = append(tasks, task)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return tasks, err
	}
	return tasks, nil
}

// HandleExtraction runs a queued extraction and records its progress.
func (s *ResumeService) HandleExtraction(ctx context.Context, task *queue.Task) error {
	if task == nil || task.Payload == nil || task.Metadata == nil {
		return fmt.Errorf("invalid task: missing required data")
	}
	if s.config.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ProcessTimeout)
		defer cancel()
	}
	if task.SessionID != "" {
		ctx = logger.WithSessionID(ctx, task.SessionID)
	}
	log := logger.FromContext(ctx, s.logger).With(logger.String("taskId", task.ID))

	filename := task.Metadata["filename"]
	log.Info("Processing resume", logger.String("filename", filename))

	fileID := task.PayloadString("fileId")
	if fileID == "" {
		return fmt.Errorf("invalid task: missing fileId")
	}

	started := task.CreatedAt
	status := &queue.TaskStatus{TaskID: task.ID, Status: queue.StatusRunning, StartedAt: started}
	state := models.NewExtractionState(func(p models.ExtractionProgress) {
		status.Stage = string(p.Stage)
		status.Progress = p.Progress
		status.UpdatedAt = time.Now()
		if err := s.queue.SaveStatus(ctx, status); err != nil {
			log.Warn("Failed to save progress", logger.Error(err))
		}
	})

	reader, err := s.storage.Get(ctx, fileID)
	if err != nil {
		s.saveFailure(ctx, task, status, err)
		return fmt.Errorf("failed to get file: %w", err)
	}
	defer reader.Close()

	size, err := strconv.ParseInt(task.Metadata["size"], 10, 64)
	if err != nil {
		size = -1
	}

	result, err := s.pipeline.Extract(ctx, state, models.RawDocument{
		Filename:  filename,
		MediaType: task.Metadata["mediaType"],
		Size:      size,
		Body:      reader,
	})
	if err != nil {
		s.saveFailure(ctx, task, status, err)
		return err
	}

	processed, err := s.converter.Convert(result)
	if err != nil {
		s.saveFailure(ctx, task, status, err)
		return fmt.Errorf("failed to convert result: %w", err)
	}
	processed.TaskID = task.ID
	processed.SessionID = task.SessionID
	processed.Metadata.FileName = filename
	processed.Metadata.FileType = task.Metadata["mediaType"]
	processed.Metadata.FileSize = size

	resultData, err := json.Marshal(processed)
	if err != nil {
		s.saveFailure(ctx, task, status, err)
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if _, err := s.storage.Store(ctx, bytes.NewReader(resultData), storage.ResultKey(task.ID)); err != nil {
		s.saveFailure(ctx, task, status, err)
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.afterExtraction(ctx, task.SessionID, result.Text)

	status.Status = queue.StatusCompleted
	status.Stage = string(models.StageDone)
	status.Progress = 100
	status.FinishedAt = time.Now()
	status.UpdatedAt = status.FinishedAt
	if err := s.queue.SaveStatus(context.WithoutCancel(ctx), status); err != nil {
		log.Error("Failed to save final status", logger.Error(err))
	}

	log.Info("Resume processing completed",
		logger.Int("pages", result.PagesTotal),
		logger.Int("pagesFailed", result.PagesFailed),
	)
	return nil
}

func (s *ResumeService) saveFailure(ctx context.Context, task *queue.Task, status *queue.TaskStatus, cause error) {
	status.Status = queue.StatusFailed
	status.Stage = string(models.StageFailed)
	status.Error = cause.Error()
	status.ErrorKind = ""

	var extErr *extraction.Error
	if errors.As(cause, &extErr) {
		status.Error = extErr.Message
		status.ErrorKind = string(extErr.Kind)
	}
	status.FinishedAt = time.Now()
	status.UpdatedAt = status.FinishedAt

	if err := s.queue.SaveStatus(context.WithoutCancel(ctx), status); err != nil {
		s.logger.Error("Failed to save failed status",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
	}
}

func (s *ResumeService) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	if s.queue == nil {
		return nil, ErrTaskNotFound
	}
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var taskStatus models.ProcessingStatus
	switch status.Status {
	case queue.StatusRunning:
		taskStatus = models.StatusRunning
	case queue.StatusCompleted:
		taskStatus = models.StatusCompleted
	case queue.StatusFailed:
		taskStatus = models.StatusFailed
	case queue.StatusCancelled:
		taskStatus = models.StatusCancelled
	default:
		taskStatus = models.StatusPending
	}

	return &models.ProcessingTask{
		ID:        status.TaskID,
		Status:    taskStatus,
		Type:      queue.TaskTypeResumeExtract,
		Stage:     models.ExtractionStage(status.Stage),
		Progress:  status.Progress,
		Error:     status.Error,
		ErrorKind: status.ErrorKind,
		Metadata:  make(map[string]string),
		CreatedAt: status.StartedAt,
		UpdatedAt: status.UpdatedAt,
	}, nil
}

func (s *ResumeService) GetProcessedResume(ctx context.Context, taskID string) (*converters.ProcessedResume, error) {
	status, err := s.GetProcessingStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if status.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotCompleted, status.Status)
	}

	reader, err := s.storage.Get(ctx, storage.ResultKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer reader.Close()

	var result converters.ProcessedResume
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}

func (s *ResumeService) GetResumeText(ctx context.Context, sessionID string) (string, error) {
	text, err := s.cache.Get(ctx, sessionID)
	if errors.Is(err, cache.ErrMiss) {
		return "", ErrNoResumeText
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *ResumeService) CancelTask(ctx context.Context, taskID string) error {
	if s.queue == nil {
		return ErrTaskNotFound
	}
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}
	s.logger.Info("Task cancelled", logger.String("taskId", taskID))
	return nil
}

// CleanupUploads removes uploads and results older than the retention period.
func (s *ResumeService) CleanupUploads(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	threshold := time.Now().Add(-s.config.RetentionPeriod)
	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}
	s.logger.Info("Completed uploads cleanup", logger.Time("threshold", threshold))
	return nil
}
