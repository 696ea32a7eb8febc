package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pagesmith/internal/apperr"
	"pagesmith/internal/events"
	"pagesmith/internal/llm/client"
	"pagesmith/internal/llm/prompts"
	"pagesmith/internal/llm/response"
	"pagesmith/internal/metrics"
	"pagesmith/internal/models"
	"pagesmith/internal/repositories"
	"pagesmith/internal/storage"
)

const (
	stageAnalysis     = "analysis"
	stageStructure    = "structure"
	stageContent      = "content"
	stageModification = "modification"
)

// contextUpdateAttempts bounds retries of a session context write that lost
// a version race.
const contextUpdateAttempts = 3

const DefaultInterFileDelay = time.Second

// AdapterSource hands out the provider adapter for a user.
type AdapterSource interface {
	Adapter(ctx context.Context, userID string) (client.Generator, error)
}

type StartChatResult struct {
	ProjectID      string                 `json:"projectId"`
	ChatSessionID  string                 `json:"chatSessionId"`
	AnalysisResult *models.AnalysisResult `json:"analysisResult"`
	Workflow       *models.Workflow       `json:"workflow"`
}

type StructureResult struct {
	FileStructure *models.FileStructure `json:"fileStructure"`
	Workflow      *models.Workflow      `json:"workflow"`
}

type FileContentResult struct {
	FileName string           `json:"fileName"`
	Content  string           `json:"content"`
	FilePath string           `json:"filePath"`
	Workflow *models.Workflow `json:"workflow"`
}

type ModifyResult struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
	Success  bool   `json:"success"`
}

type FileResultStatus string

const (
	FileResultSuccess FileResultStatus = "success"
	FileResultFailed  FileResultStatus = "failed"
)

// FileResult is the outcome of one pipeline attempt.
type FileResult struct {
	FileName string           `json:"fileName"`
	Status   FileResultStatus `json:"status"`
	FilePath string           `json:"filePath,omitempty"`
	Content  string           `json:"content,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// PipelineReport lists results in the order files were attempted.
type PipelineReport struct {
	Results   []FileResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

type GenerationOptions struct {
	// InterFileDelay separates consecutive pipeline attempts.
	InterFileDelay time.Duration
	// Sleep waits between attempts; a context-aware timer unless replaced.
	Sleep func(ctx context.Context, d time.Duration)
}

type GenerationService struct {
	adapters AdapterSource
	projects repositories.ProjectRepository
	sessions repositories.ChatSessionRepository
	files    repositories.GeneratedFileRepository
	sink     storage.Sink
	logger   zerolog.Logger
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration)
}

func NewGenerationService(
	adapters AdapterSource,
	projects repositories.ProjectRepository,
	sessions repositories.ChatSessionRepository,
	files repositories.GeneratedFileRepository,
	sink storage.Sink,
	logger zerolog.Logger,
	opts GenerationOptions,
) *GenerationService {
	if opts.InterFileDelay < 0 {
		opts.InterFileDelay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &GenerationService{
		adapters: adapters,
		projects: projects,
		sessions: sessions,
		files:    files,
		sink:     sink,
		logger:   logger,
		delay:    opts.InterFileDelay,
		sleep:    opts.Sleep,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// StartChat analyzes prompt into requirements and opens a project with its
// chat session. Nothing is stored unless the analysis succeeds.
func (s *GenerationService) StartChat(ctx context.Context, userID, prompt string) (*StartChatResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperr.Validation("prompt", "is required")
	}

	events.Emit(ctx, events.WorkflowStep, events.NewInfo(models.StepAnalysis, "analyzing requirements"))

	analysis, err := s.analyze(ctx, userID, prompt)
	if err != nil {
		return nil, s.stageFailed(ctx, stageAnalysis, models.StepAnalysis, err)
	}

	project := &models.Project{Name: projectName(analysis, prompt), Prompt: prompt}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, s.stageFailed(ctx, stageAnalysis, models.StepAnalysis, err)
	}

	session := &models.ChatSession{
		ProjectID: project.ID,
		Context:   models.SessionContext{AnalysisResult: analysis},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, s.stageFailed(ctx, stageAnalysis, models.StepAnalysis, err)
	}

	workflow := models.NewWorkflow(models.StepAnalysis, models.WorkflowCompleted, analysis)
	err = s.sessions.AppendMessages(ctx, session.ID,
		&models.ChatMessage{Role: models.RoleUser, Content: prompt},
		&models.ChatMessage{Role: models.RoleAssistant, Content: analysisSummary(analysis), Workflow: workflow},
	)
	if err != nil {
		return nil, s.stageFailed(ctx, stageAnalysis, models.StepAnalysis, err)
	}

	ctx = events.WithSession(ctx, session.ID)
	events.Emit(ctx, events.WorkflowStep, events.NewSuccess(models.StepAnalysis, "requirements analyzed").With("project", project.ID))
	s.logger.Info().Str("project", project.ID).Str("session", session.ID).Int("pages", len(analysis.Pages)).Msg("chat started")

	return &StartChatResult{
		ProjectID:      project.ID,
		ChatSessionID:  session.ID,
		AnalysisResult: analysis,
		Workflow:       workflow,
	}, nil
}

func (s *GenerationService) analyze(ctx context.Context, userID, prompt string) (*models.AnalysisResult, error) {
	adapter, err := s.adapters.Adapter(ctx, userID)
	if err != nil {
		return nil, err
	}
	instruction, err := prompts.Analysis(prompts.AnalysisInput{Prompt: prompt})
	if err != nil {
		return nil, err
	}
	raw, err := adapter.GenerateText(ctx, instruction)
	if err != nil {
		return nil, err
	}

	var analysis models.AnalysisResult
	if err := response.ExtractJSON(raw, &analysis); err != nil {
		return nil, err
	}
	analysis.Normalize()
	if err := analysis.Validate(); err != nil {
		return nil, malformedResult(raw, err)
	}
	return &analysis, nil
}

// GenerateStructure plans the project's files. analysis overrides the one
// stored on the session when non-nil.
func (s *GenerationService) GenerateStructure(ctx context.Context, userID, sessionID string, analysis *models.AnalysisResult) (*StructureResult, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = events.WithSession(ctx, session.ID)

	if analysis == nil {
		analysis = session.Context.AnalysisResult
	} else {
		analysis.Normalize()
		if err := analysis.Validate(); err != nil {
			return nil, apperr.Validation("analysisResult", "%v", err)
		}
	}
	if analysis == nil {
		return nil, apperr.Validation("analysisResult", "no analysis available for session %s", session.ID)
	}

	events.Emit(ctx, events.WorkflowStep, events.NewInfo(models.StepStructure, "planning file structure"))

	structure, err := s.planStructure(ctx, userID, analysis)
	if err != nil {
		return nil, s.stageFailed(ctx, stageStructure, models.StepStructure, err)
	}

	err = s.updateContext(ctx, session, func(sc *models.SessionContext) {
		sc.FileStructure = structure
		if sc.AnalysisResult == nil {
			sc.AnalysisResult = analysis
		}
	})
	if err != nil {
		return nil, s.stageFailed(ctx, stageStructure, models.StepStructure, err)
	}

	workflow := models.NewWorkflow(models.StepStructure, models.WorkflowCompleted, structure)
	names := structure.FileNames()
	msg := &models.ChatMessage{
		Role:     models.RoleAssistant,
		Content:  fmt.Sprintf("Planned %d files: %s", len(names), strings.Join(names, ", ")),
		Workflow: workflow,
	}
	if err := s.sessions.AppendMessages(ctx, session.ID, msg); err != nil {
		return nil, s.stageFailed(ctx, stageStructure, models.StepStructure, err)
	}

	events.Emit(ctx, events.WorkflowStep, events.NewSuccess(models.StepStructure, "file structure planned").With("files", strings.Join(names, ",")))
	return &StructureResult{FileStructure: structure, Workflow: workflow}, nil
}

func (s *GenerationService) planStructure(ctx context.Context, userID string, analysis *models.AnalysisResult) (*models.FileStructure, error) {
	adapter, err := s.adapters.Adapter(ctx, userID)
	if err != nil {
		return nil, err
	}
	instruction, err := prompts.Structure(prompts.StructureInput{Analysis: analysis})
	if err != nil {
		return nil, err
	}
	raw, err := adapter.GenerateText(ctx, instruction)
	if err != nil {
		return nil, err
	}

	var structure models.FileStructure
	if err := response.ExtractJSON(raw, &structure); err != nil {
		return nil, err
	}
	if err := structure.Validate(); err != nil {
		return nil, malformedResult(raw, err)
	}
	return &structure, nil
}

// updateContext applies mutate to the session context and stores it,
// re-reading the session when another writer got there first.
func (s *GenerationService) updateContext(ctx context.Context, session *models.ChatSession, mutate func(*models.SessionContext)) error {
	current := session
	for attempt := 1; ; attempt++ {
		next := current.Context
		mutate(&next)
		version, err := s.sessions.UpdateContext(ctx, current.ID, current.Version, next)
		if err == nil {
			session.Context = next
			session.Version = version
			return nil
		}
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return err
		}
		if attempt == contextUpdateAttempts {
			return &apperr.ConflictError{Entity: "chat session", ID: session.ID}
		}
		s.logger.Debug().Str("session", session.ID).Int("attempt", attempt).Msg("session context changed concurrently, retrying")
		if current, err = s.loadSession(ctx, session.ID); err != nil {
			return err
		}
	}
}

// GenerateFile writes one project file. Nil analysis or structure fall back
// to the session context.
func (s *GenerationService) GenerateFile(ctx context.Context, userID, sessionID, fileName string, analysis *models.AnalysisResult, structure *models.FileStructure) (*FileContentResult, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, apperr.Validation("fileName", "is required")
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateName(session.ProjectID, fileName); err != nil {
		return nil, err
	}
	ctx = events.WithSession(ctx, session.ID)

	if analysis == nil {
		analysis = session.Context.AnalysisResult
	}
	if structure == nil {
		structure = session.Context.FileStructure
	}
	if analysis == nil {
		return nil, apperr.Validation("analysisResult", "no analysis available for session %s", session.ID)
	}

	directive, ok := structure.Directive(fileName)
	if !ok {
		directive = DefaultDirective(fileName)
	}

	filePath := models.FilePathFor(session.ProjectID, fileName)
	row := &models.GeneratedFile{
		ProjectID: session.ProjectID,
		FileName:  fileName,
		FilePath:  filePath,
		Status:    models.FileGenerating,
	}
	if err := s.files.MarkStatus(ctx, row); err != nil {
		return nil, s.stageFailed(ctx, stageContent, models.StepContent, err)
	}

	events.Emit(ctx, events.WorkflowFile, events.NewInfo(models.StepContent, "generating file").With("file", fileName))

	content, err := s.writeFile(ctx, userID, session, fileName, directive, analysis, structure)
	if err != nil {
		s.recordFileError(ctx, session, row, err)
		return nil, s.stageFailed(ctx, stageContent, models.StepContent, err)
	}

	workflow := models.NewWorkflow(models.StepContent, models.WorkflowCompleted, map[string]string{
		"fileName": fileName,
		"filePath": filePath,
	})
	msg := &models.ChatMessage{
		Role:     models.RoleAssistant,
		Content:  fmt.Sprintf("Generated %s", fileName),
		Workflow: workflow,
	}
	if err := s.sessions.AppendMessages(ctx, session.ID, msg); err != nil {
		return nil, s.stageFailed(ctx, stageContent, models.StepContent, err)
	}

	events.Emit(ctx, events.WorkflowFile, events.NewSuccess(models.StepContent, "file generated").With("file", fileName).With("path", filePath))
	return &FileContentResult{FileName: fileName, Content: content, FilePath: filePath, Workflow: workflow}, nil
}

func (s *GenerationService) writeFile(ctx context.Context, userID string, session *models.ChatSession, fileName, directive string, analysis *models.AnalysisResult, structure *models.FileStructure) (string, error) {
	adapter, err := s.adapters.Adapter(ctx, userID)
	if err != nil {
		return "", err
	}

	brief := s.enhance(ctx, adapter, fileName, directive, analysis)

	instruction, err := prompts.Generate(prompts.GenerateInput{
		FileName:  fileName,
		Directive: brief,
		Analysis:  analysis,
		Siblings:  siblings(structure, fileName),
	})
	if err != nil {
		return "", err
	}
	raw, err := adapter.GenerateText(ctx, instruction)
	if err != nil {
		return "", err
	}
	content := response.CleanMarkup(raw)

	if err := s.sink.WriteFile(ctx, session.ProjectID, fileName, content); err != nil {
		return "", err
	}
	row := &models.GeneratedFile{
		ProjectID: session.ProjectID,
		FileName:  fileName,
		FilePath:  models.FilePathFor(session.ProjectID, fileName),
		Content:   content,
		Status:    models.FileGenerated,
	}
	if err := s.files.Upsert(ctx, row); err != nil {
		return "", err
	}
	return content, nil
}

type enhancement struct {
	Summary    string `json:"summary"`
	Categories []struct {
		Name     string   `json:"name"`
		Features []string `json:"features"`
	} `json:"categories"`
}

// enhance expands directive into a categorized checklist. Any failure falls
// back to the directive itself.
func (s *GenerationService) enhance(ctx context.Context, adapter client.Generator, fileName, directive string, analysis *models.AnalysisResult) string {
	fallback := func(err error) string {
		metrics.EnhancementFallbacks.Inc()
		s.logger.Warn().Err(err).Str("file", fileName).Msg("directive enhancement failed, using planned directive")
		events.Emit(ctx, events.WorkflowFile, events.NewWarn(models.StepContent, "enhancement skipped").With("file", fileName))
		return directive
	}

	instruction, err := prompts.Enhance(prompts.EnhanceInput{FileName: fileName, Directive: directive, Analysis: analysis})
	if err != nil {
		return fallback(err)
	}
	raw, err := adapter.GenerateText(ctx, instruction)
	if err != nil {
		return fallback(err)
	}
	var out enhancement
	if err := response.ExtractJSON(raw, &out); err != nil {
		return fallback(err)
	}
	checklist := renderChecklist(directive, out)
	if checklist == "" {
		return fallback(errors.New("enhancement has no features"))
	}
	return checklist
}

func renderChecklist(directive string, e enhancement) string {
	var b strings.Builder
	count := 0
	for _, cat := range e.Categories {
		var features []string
		for _, f := range cat.Features {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
		if len(features) == 0 {
			continue
		}
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			name = "General"
		}
		fmt.Fprintf(&b, "\n%s:\n", name)
		for _, f := range features {
			fmt.Fprintf(&b, "- [ ] %s\n", f)
			count++
		}
	}
	if count == 0 {
		return ""
	}
	summary := strings.TrimSpace(e.Summary)
	if summary == "" {
		summary = directive
	}
	return summary + "\n" + strings.TrimRight(b.String(), "\n")
}

func (s *GenerationService) recordFileError(ctx context.Context, session *models.ChatSession, row *models.GeneratedFile, cause error) {
	row.Status = models.FileError
	row.Error = cause.Error()
	if err := s.files.MarkStatus(ctx, row); err != nil {
		s.logger.Error().Err(err).Str("file", row.FileName).Msg("failed to record file error")
	}

	msg := &models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf("Failed to generate %s: %v", row.FileName, cause),
		Workflow: models.NewWorkflow(models.StepContent, models.WorkflowError, map[string]string{
			"fileName": row.FileName,
			"error":    cause.Error(),
		}),
	}
	if err := s.sessions.AppendMessages(ctx, session.ID, msg); err != nil {
		s.logger.Error().Err(err).Str("file", row.FileName).Msg("failed to record file error message")
	}
}

// RunPipeline generates fileNames in order, or every planned file when
// fileNames is empty. A failed file is reported and the pipeline moves on.
func (s *GenerationService) RunPipeline(ctx context.Context, userID, sessionID string, fileNames []string) (*PipelineReport, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = events.WithSession(ctx, session.ID)

	if len(fileNames) == 0 {
		if session.Context.FileStructure == nil {
			return nil, apperr.Validation("fileStructure", "no file structure for session %s", session.ID)
		}
		fileNames = session.Context.FileStructure.FileNames()
	}

	report := &PipelineReport{Results: make([]FileResult, 0, len(fileNames))}
	for i, name := range fileNames {
		if i > 0 {
			s.sleep(ctx, s.delay)
		}
		events.Emit(ctx, events.WorkflowPipeline, events.NewInfo(models.StepContent, fmt.Sprintf("file %d of %d", i+1, len(fileNames))).With("file", name))

		res, err := s.GenerateFile(ctx, userID, session.ID, name, nil, nil)
		if err != nil {
			report.Failed++
			report.Results = append(report.Results, FileResult{FileName: name, Status: FileResultFailed, Error: err.Error()})
			metrics.PipelineFiles.WithLabelValues(string(FileResultFailed)).Inc()
			continue
		}
		report.Succeeded++
		report.Results = append(report.Results, FileResult{
			FileName: name,
			Status:   FileResultSuccess,
			FilePath: res.FilePath,
			Content:  res.Content,
		})
		metrics.PipelineFiles.WithLabelValues(string(FileResultSuccess)).Inc()
	}

	done := events.NewSuccess(models.StepContent, fmt.Sprintf("pipeline finished: %d succeeded, %d failed", report.Succeeded, report.Failed))
	if report.Failed > 0 {
		done.Type = events.EventWarn
	}
	events.Emit(ctx, events.WorkflowPipeline, done)
	s.logger.Info().Str("session", session.ID).Int("succeeded", report.Succeeded).Int("failed", report.Failed).Msg("pipeline finished")

	status := models.SessionCompleted
	if report.Failed > 0 {
		status = models.SessionError
	}
	if err := s.sessions.UpdateStatus(ctx, session.ID, status); err != nil {
		s.logger.Error().Err(err).Str("session", session.ID).Msg("failed to update session status")
	}
	return report, nil
}

// ModifyFile rewrites an existing file according to instruction.
func (s *GenerationService) ModifyFile(ctx context.Context, userID, sessionID, fileName, instruction string) (*ModifyResult, error) {
	fileName = strings.TrimSpace(fileName)
	instruction = strings.TrimSpace(instruction)
	if fileName == "" {
		return nil, apperr.Validation("fileName", "is required")
	}
	if instruction == "" {
		return nil, apperr.Validation("modificationRequest", "is required")
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = events.WithSession(ctx, session.ID)

	userMsg := &models.ChatMessage{Role: models.RoleUser, Content: instruction}

	current, err := s.sink.ReadFile(ctx, session.ProjectID, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = apperr.NotFound("file", fileName)
		}
		s.recordModifyError(ctx, session, fileName, userMsg, err)
		return nil, s.stageFailed(ctx, stageModification, models.StepModification, err)
	}

	events.Emit(ctx, events.WorkflowStep, events.NewInfo(models.StepModification, "modifying file").With("file", fileName))

	content, err := s.modify(ctx, userID, session, fileName, instruction, current)
	if err != nil {
		s.recordModifyError(ctx, session, fileName, userMsg, err)
		return nil, s.stageFailed(ctx, stageModification, models.StepModification, err)
	}

	reply := &models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf("Updated %s", fileName),
		Workflow: models.NewWorkflow(models.StepModification, models.WorkflowCompleted, map[string]string{
			"fileName": fileName,
			"filePath": models.FilePathFor(session.ProjectID, fileName),
		}),
	}
	if err := s.sessions.AppendMessages(ctx, session.ID, userMsg, reply); err != nil {
		return nil, s.stageFailed(ctx, stageModification, models.StepModification, err)
	}

	events.Emit(ctx, events.WorkflowStep, events.NewSuccess(models.StepModification, "file modified").With("file", fileName))
	return &ModifyResult{FileName: fileName, Content: content, Success: true}, nil
}

func (s *GenerationService) recordModifyError(ctx context.Context, session *models.ChatSession, fileName string, userMsg *models.ChatMessage, cause error) {
	reply := &models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf("Failed to modify %s: %v", fileName, cause),
		Workflow: models.NewWorkflow(models.StepModification, models.WorkflowError, map[string]string{
			"fileName": fileName,
			"error":    cause.Error(),
		}),
	}
	if err := s.sessions.AppendMessages(ctx, session.ID, userMsg, reply); err != nil {
		s.logger.Error().Err(err).Str("file", fileName).Msg("failed to record modification error message")
	}
}

func (s *GenerationService) modify(ctx context.Context, userID string, session *models.ChatSession, fileName, instruction, current string) (string, error) {
	adapter, err := s.adapters.Adapter(ctx, userID)
	if err != nil {
		return "", err
	}
	prompt, err := prompts.Modify(prompts.ModifyInput{FileName: fileName, Instruction: instruction, Content: current})
	if err != nil {
		return "", err
	}
	raw, err := adapter.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	content := response.CleanMarkup(raw)

	if err := s.sink.WriteFile(ctx, session.ProjectID, fileName, content); err != nil {
		return "", err
	}
	row := &models.GeneratedFile{
		ProjectID: session.ProjectID,
		FileName:  fileName,
		FilePath:  models.FilePathFor(session.ProjectID, fileName),
		Content:   content,
		Status:    models.FileGenerated,
	}
	if err := s.files.Upsert(ctx, row); err != nil {
		return "", err
	}
	return content, nil
}

func (s *GenerationService) loadSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperr.Validation("sessionId", "is required")
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("chat session", sessionID)
		}
		return nil, err
	}
	return session, nil
}

func (s *GenerationService) stageFailed(ctx context.Context, stage string, step int, err error) error {
	kind := apperr.Kind(err)
	metrics.StageFailures.WithLabelValues(stage, string(kind)).Inc()
	s.logger.Error().Err(err).Str("stage", stage).Str("kind", string(kind)).Str("session", events.SessionFromContext(ctx)).Msg("stage failed")
	events.Emit(ctx, events.WorkflowStep, events.NewError(step, err.Error()).With("stage", stage))
	return err
}

// DefaultDirective is used for files the plan has no prompt for.
func DefaultDirective(fileName string) string {
	return "Create a complete, functional page for " + fileName
}

func malformedResult(raw string, err error) error {
	return &apperr.MalformedResponseError{Snippet: response.Snippet(raw), Err: err}
}

func siblings(structure *models.FileStructure, fileName string) []string {
	if structure == nil {
		return nil
	}
	var out []string
	for _, name := range structure.FileNames() {
		if name != fileName {
			out = append(out, name)
		}
	}
	return out
}

func projectName(analysis *models.AnalysisResult, prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 6 {
		words = words[:6]
	}
	name := strings.Join(words, " ")
	if utf8.RuneCountInString(name) > 80 {
		name = string([]rune(name)[:80])
	}
	if name == "" && len(analysis.Pages) > 0 {
		name = analysis.Pages[0]
	}
	return name
}

func analysisSummary(a *models.AnalysisResult) string {
	return fmt.Sprintf("Identified %d features across %d pages: %s", len(a.Features), len(a.Pages), strings.Join(a.Pages, ", "))
}
