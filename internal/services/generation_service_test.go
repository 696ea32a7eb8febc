package services_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pagesmith/internal/apperr"
	"pagesmith/internal/database"
	"pagesmith/internal/llm/client"
	"pagesmith/internal/metrics"
	"pagesmith/internal/models"
	"pagesmith/internal/repositories"
	"pagesmith/internal/services"
	"pagesmith/internal/storage"
	"pagesmith/internal/tests/mocks"
)

const todoAnalysis = `Here is the analysis:
` + "```json" + `
{
  "features": ["add todo", "complete todo", "delete todo"],
  "pages": ["home", "about"],
  "technical_requirements": {"responsive": true, "authentication": false, "data_persistence": "localStorage"}
}
` + "```"

const todoStructure = `{"project": {"type": "directory", "children": {
  "index.html": {"type": "file", "prompt": "Main todo list with add and complete"},
  "about.html": {"type": "file", "prompt": "About page describing the app"}
}}}`

const todoEnhancement = `{"summary": "Todo page", "categories": [{"name": "Layout", "features": ["Header", "Task list"]}]}`

// scriptedModel answers each prompt kind with a canned reply.
type scriptedModel struct {
	mu        sync.Mutex
	analysis  string
	structure string
	enhance   string
	failFiles map[string]error
	modifyErr error
	// modify rewrites the current content of a modify prompt when set.
	modify func(instruction, current string) string
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		analysis:  todoAnalysis,
		structure: todoStructure,
		enhance:   todoEnhancement,
		failFiles: map[string]error{},
	}
}

func (m *scriptedModel) reply(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case strings.HasPrefix(prompt, "You are a senior product engineer"):
		return m.analysis, nil
	case strings.HasPrefix(prompt, "You are planning the files"):
		return m.structure, nil
	case strings.HasPrefix(prompt, "You are refining"):
		return m.enhance, nil
	case strings.HasPrefix(prompt, "You are an expert front-end developer"):
		name := quotedFileName(prompt)
		if err := m.failFiles[name]; err != nil {
			return "", err
		}
		return fmt.Sprintf("```html\n<!DOCTYPE html><title>%s</title>\n```", name), nil
	case strings.HasPrefix(prompt, "You are editing the file"):
		if m.modifyErr != nil {
			return "", m.modifyErr
		}
		if m.modify != nil {
			instruction, current := modifyParts(prompt)
			return m.modify(instruction, current), nil
		}
		return "```\n<!DOCTYPE html><title>modified</title>\n```", nil
	}
	return "", errors.New("unexpected prompt")
}

func modifyParts(prompt string) (instruction, current string) {
	_, rest, _ := strings.Cut(prompt, "Requested change:\n")
	instruction, rest, _ = strings.Cut(rest, "\n\nCurrent content:\n")
	current, _, _ = strings.Cut(rest, "\n\nApply the requested change")
	return instruction, current
}

func quotedFileName(prompt string) string {
	_, rest, _ := strings.Cut(prompt, `file "`)
	name, _, _ := strings.Cut(rest, `"`)
	return name
}

type genFixture struct {
	svc      *services.GenerationService
	model    *scriptedModel
	gen      *mocks.GeneratorMock
	db       *gorm.DB
	sessions repositories.ChatSessionRepository
	files    repositories.GeneratedFileRepository
	sink     *storage.DiskSink
	sleeps   []time.Duration
}

func newGenFixture(t *testing.T, wrap ...func(repositories.ChatSessionRepository) repositories.ChatSessionRepository) *genFixture {
	t.Helper()
	db, err := database.Init(database.Config{Path: filepath.Join(t.TempDir(), "gen.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &genFixture{
		model:    newScriptedModel(),
		db:       db,
		sessions: repositories.NewChatSessionRepository(db),
		files:    repositories.NewGeneratedFileRepository(db),
		sink:     storage.NewDiskSinkFs(afero.NewMemMapFs(), "http://localhost:8080"),
	}
	f.gen = &mocks.GeneratorMock{GenerateTextFunc: f.model.reply}

	sessions := f.sessions
	for _, w := range wrap {
		sessions = w(sessions)
	}
	f.svc = services.NewGenerationService(
		&mocks.AdapterSourceMock{Generator: f.gen},
		repositories.NewProjectRepository(db),
		sessions,
		f.files,
		f.sink,
		zerolog.Nop(),
		services.GenerationOptions{
			InterFileDelay: 5 * time.Millisecond,
			Sleep:          func(_ context.Context, d time.Duration) { f.sleeps = append(f.sleeps, d) },
		},
	)
	return f
}

func (f *genFixture) start(t *testing.T) *services.StartChatResult {
	t.Helper()
	res, err := f.svc.StartChat(context.Background(), "u1", "a todo list app")
	require.NoError(t, err)
	return res
}

func (f *genFixture) plan(t *testing.T) *services.StartChatResult {
	t.Helper()
	res := f.start(t)
	_, err := f.svc.GenerateStructure(context.Background(), "u1", res.ChatSessionID, nil)
	require.NoError(t, err)
	return res
}

func TestStartChat_EmptyPromptMakesNoCall(t *testing.T) {
	f := newGenFixture(t)

	_, err := f.svc.StartChat(context.Background(), "u1", "  \n\t")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))
	assert.Zero(t, f.gen.Calls())
}

func TestStartChat_StoresProjectSessionAndMessages(t *testing.T) {
	f := newGenFixture(t)

	res := f.start(t)
	assert.NotEmpty(t, res.ProjectID)
	assert.Equal(t, []string{"home", "about"}, res.AnalysisResult.Pages)
	assert.Equal(t, models.PersistLocalStorage, res.AnalysisResult.TechnicalRequirements.DataPersistence)
	assert.Equal(t, models.StepAnalysis, res.Workflow.Step)
	assert.Equal(t, models.WorkflowCompleted, res.Workflow.Status)

	session, err := f.sessions.Get(context.Background(), res.ChatSessionID)
	require.NoError(t, err)
	assert.Equal(t, res.ProjectID, session.ProjectID)
	require.NotNil(t, session.Context.AnalysisResult)
	assert.Len(t, session.Context.AnalysisResult.Features, 3)

	require.Len(t, session.Messages, 2)
	assert.Equal(t, models.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "a todo list app", session.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, session.Messages[1].Role)
	require.NotNil(t, session.Messages[1].Workflow)
	assert.Equal(t, "Requirements Analysis", session.Messages[1].Workflow.StepName)
}

func TestStartChat_MalformedResponseStoresNothing(t *testing.T) {
	f := newGenFixture(t)
	f.model.analysis = "I could not understand the request."

	_, err := f.svc.StartChat(context.Background(), "u1", "a todo list app")
	require.Error(t, err)
	assert.Equal(t, apperr.KindMalformedResponse, apperr.Kind(err))

	var projects, sessions int64
	require.NoError(t, f.db.Model(&models.Project{}).Count(&projects).Error)
	require.NoError(t, f.db.Model(&models.ChatSession{}).Count(&sessions).Error)
	assert.Zero(t, projects)
	assert.Zero(t, sessions)
}

func TestStartChat_IncompleteAnalysisIsMalformed(t *testing.T) {
	f := newGenFixture(t)
	f.model.analysis = `{"features": ["x"], "pages": []}`

	_, err := f.svc.StartChat(context.Background(), "u1", "a todo list app")
	assert.Equal(t, apperr.KindMalformedResponse, apperr.Kind(err))
}

func TestStartChat_AdapterErrorPropagates(t *testing.T) {
	f := newGenFixture(t)
	f.svc = services.NewGenerationService(
		&mocks.AdapterSourceMock{AdapterFunc: func(context.Context, string) (client.Generator, error) {
			return nil, apperr.Configuration("no API key for gemini")
		}},
		repositories.NewProjectRepository(f.db), f.sessions, f.files, f.sink, zerolog.Nop(), services.GenerationOptions{},
	)

	_, err := f.svc.StartChat(context.Background(), "u1", "a todo list app")
	assert.Equal(t, apperr.KindConfiguration, apperr.Kind(err))
}

func TestGenerateStructure_StoresPlanInSessionContext(t *testing.T) {
	f := newGenFixture(t)
	res := f.start(t)

	out, err := f.svc.GenerateStructure(context.Background(), "u1", res.ChatSessionID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "about.html"}, out.FileStructure.FileNames())
	assert.Equal(t, models.StepStructure, out.Workflow.Step)

	session, err := f.sessions.Get(context.Background(), res.ChatSessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.Version)
	require.NotNil(t, session.Context.FileStructure)
	assert.Equal(t, []string{"index.html", "about.html"}, session.Context.FileStructure.FileNames())
	require.Len(t, session.Messages, 3)
	assert.Equal(t, 3, session.Messages[2].Seq)
	assert.Equal(t, "File Structure", session.Messages[2].Workflow.StepName)
}

func TestGenerateStructure_UnknownSession(t *testing.T) {
	f := newGenFixture(t)

	_, err := f.svc.GenerateStructure(context.Background(), "u1", "missing", nil)
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
	assert.Zero(t, f.gen.Calls())
}

func TestGenerateStructure_NestedDirectoryIsMalformed(t *testing.T) {
	f := newGenFixture(t)
	res := f.start(t)
	f.model.structure = `{"project": {"type": "directory", "children": {"css": {"type": "directory", "children": {}}}}}`

	_, err := f.svc.GenerateStructure(context.Background(), "u1", res.ChatSessionID, nil)
	assert.Equal(t, apperr.KindMalformedResponse, apperr.Kind(err))

	session, err := f.sessions.Get(context.Background(), res.ChatSessionID)
	require.NoError(t, err)
	assert.Nil(t, session.Context.FileStructure)
	assert.Equal(t, 1, session.Version)
}

// racingSessions lets another writer bump the version right before the first
// context update lands.
type racingSessions struct {
	repositories.ChatSessionRepository
	raced bool
	calls int
}

func (r *racingSessions) UpdateContext(ctx context.Context, id string, version int, sc models.SessionContext) (int, error) {
	r.calls++
	if !r.raced {
		r.raced = true
		if _, err := r.ChatSessionRepository.UpdateContext(ctx, id, version, sc); err != nil {
			return 0, err
		}
	}
	return r.ChatSessionRepository.UpdateContext(ctx, id, version, sc)
}

func TestGenerateStructure_RetriesAfterVersionConflict(t *testing.T) {
	var racing *racingSessions
	f := newGenFixture(t, func(inner repositories.ChatSessionRepository) repositories.ChatSessionRepository {
		racing = &racingSessions{ChatSessionRepository: inner}
		return racing
	})
	res := f.start(t)

	_, err := f.svc.GenerateStructure(context.Background(), "u1", res.ChatSessionID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, racing.calls)

	session, err := f.sessions.Get(context.Background(), res.ChatSessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Version)
	assert.NotNil(t, session.Context.FileStructure)
}

func TestRunPipeline_TodoProject(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)

	report, err := f.svc.RunPipeline(ctx, "u1", res.ChatSessionID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Zero(t, report.Failed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "index.html", report.Results[0].FileName)
	assert.Equal(t, "about.html", report.Results[1].FileName)
	assert.Equal(t, "generated/"+res.ProjectID+"/index.html", report.Results[0].FilePath)
	assert.Equal(t, "<!DOCTYPE html><title>index.html</title>", report.Results[0].Content)

	assert.Equal(t, []time.Duration{5 * time.Millisecond}, f.sleeps)

	stored, err := f.sink.ReadFile(ctx, res.ProjectID, "about.html")
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><title>about.html</title>", stored)

	rows, err := f.files.ListByProject(ctx, res.ProjectID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, models.FileGenerated, row.Status)
	}

	session, err := f.sessions.Get(ctx, res.ChatSessionID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 5)
	assert.Equal(t, models.StepContent, session.Messages[4].Workflow.Step)
	assert.Equal(t, models.SessionCompleted, session.Status)
}

func TestRunPipeline_ContinuesPastFailedFile(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	f.model.structure = `{"project": {"type": "directory", "children": {
	  "a.html": {"type": "file", "prompt": "A"},
	  "b.html": {"type": "file", "prompt": "B"},
	  "c.html": {"type": "file", "prompt": "C"}
	}}}`
	f.model.failFiles["b.html"] = errors.New("rate limited")
	res := f.plan(t)

	before := testutil.ToFloat64(metrics.PipelineFiles.WithLabelValues("failed"))
	report, err := f.svc.RunPipeline(ctx, "u1", res.ChatSessionID, nil)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, services.FileResultSuccess, report.Results[0].Status)
	assert.Equal(t, services.FileResultFailed, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Error, "rate limited")
	assert.Equal(t, services.FileResultSuccess, report.Results[2].Status)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, f.sleeps, 2)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PipelineFiles.WithLabelValues("failed")))

	row, err := f.files.Get(ctx, res.ProjectID, "b.html")
	require.NoError(t, err)
	assert.Equal(t, models.FileError, row.Status)
	assert.Contains(t, row.Error, "rate limited")

	_, err = f.sink.ReadFile(ctx, res.ProjectID, "b.html")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	session, err := f.sessions.Get(ctx, res.ChatSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionError, session.Status)
}

func TestRunPipeline_ExplicitNamesAndMissingStructure(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.start(t)

	_, err := f.svc.RunPipeline(ctx, "u1", res.ChatSessionID, nil)
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	report, err := f.svc.RunPipeline(ctx, "u1", res.ChatSessionID, []string{"only.html"})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, services.FileResultSuccess, report.Results[0].Status)
	assert.Empty(t, f.sleeps)
}

func TestGenerateFile_RegenerateTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)

	_, err := f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)
	first, err := f.files.Get(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)

	_, err = f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)

	rows, err := f.files.ListByProject(ctx, res.ProjectID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, models.FileGenerated, rows[0].Status)
	assert.Empty(t, rows[0].Error)
}

func TestGenerateFile_FailedRegenerationKeepsStoredContent(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)

	_, err := f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)

	f.model.failFiles["index.html"] = errors.New("rate limited")
	_, err = f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.Error(t, err)

	row, err := f.files.Get(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, models.FileError, row.Status)
	assert.Contains(t, row.Error, "rate limited")
	assert.Equal(t, "<!DOCTYPE html><title>index.html</title>", row.Content)

	stored, err := f.sink.ReadFile(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, row.Content, stored)
}

func TestGenerateFile_EnhancementFallsBackToDirective(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	f.model.enhance = "Sorry, I cannot do that."
	res := f.plan(t)

	before := testutil.ToFloat64(metrics.EnhancementFallbacks)
	out, err := f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><title>index.html</title>", out.Content)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EnhancementFallbacks))

	prompts := f.gen.Prompts()
	last := prompts[len(prompts)-1]
	assert.Contains(t, last, "Main todo list with add and complete")
}

func TestGenerateFile_UsesEnhancedChecklist(t *testing.T) {
	f := newGenFixture(t)
	res := f.plan(t)

	_, err := f.svc.GenerateFile(context.Background(), "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)

	prompts := f.gen.Prompts()
	last := prompts[len(prompts)-1]
	assert.Contains(t, last, "Todo page")
	assert.Contains(t, last, "- [ ] Task list")
	assert.Contains(t, last, "about.html")
	assert.Contains(t, last, "localStorage")
}

func TestGenerateFile_UnplannedFileGetsDefaultDirective(t *testing.T) {
	f := newGenFixture(t)
	res := f.plan(t)

	_, err := f.svc.GenerateFile(context.Background(), "u1", res.ChatSessionID, "contact.html", nil, nil)
	require.NoError(t, err)

	prompts := f.gen.Prompts()
	enhancePrompt := prompts[len(prompts)-2]
	assert.Contains(t, enhancePrompt, services.DefaultDirective("contact.html"))
}

func TestGenerateFile_Validation(t *testing.T) {
	f := newGenFixture(t)
	res := f.plan(t)

	_, err := f.svc.GenerateFile(context.Background(), "u1", res.ChatSessionID, "", nil, nil)
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = f.svc.GenerateFile(context.Background(), "u1", res.ChatSessionID, "../etc/passwd", nil, nil)
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = f.svc.GenerateFile(context.Background(), "u1", "missing", "index.html", nil, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
}

func TestModifyFile_RewritesExistingFile(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)
	_, err := f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)

	out, err := f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "index.html", "make the header blue")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "<!DOCTYPE html><title>modified</title>", out.Content)

	prompts := f.gen.Prompts()
	modifyPrompt := prompts[len(prompts)-1]
	assert.Contains(t, modifyPrompt, "make the header blue")
	assert.Contains(t, modifyPrompt, "<!DOCTYPE html><title>index.html</title>")

	stored, err := f.sink.ReadFile(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, out.Content, stored)

	row, err := f.files.Get(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, out.Content, row.Content)

	session, err := f.sessions.Get(ctx, res.ChatSessionID)
	require.NoError(t, err)
	n := len(session.Messages)
	assert.Equal(t, models.RoleUser, session.Messages[n-2].Role)
	assert.Equal(t, "make the header blue", session.Messages[n-2].Content)
	assert.Equal(t, models.StepModification, session.Messages[n-1].Workflow.Step)
	assert.Equal(t, models.WorkflowCompleted, session.Messages[n-1].Workflow.Status)
}

func TestModifyFile_Errors(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)

	_, err := f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "index.html", " ")
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = f.svc.ModifyFile(ctx, "u1", "missing", "index.html", "x")
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))

	_, err = f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "index.html", "x")
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
}

func TestModifyFile_MissingFileRecordsMessages(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)
	calls := f.gen.Calls()

	_, err := f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "contact.html", "add a form")
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
	assert.Equal(t, calls, f.gen.Calls())

	session, err := f.sessions.Get(ctx, res.ChatSessionID)
	require.NoError(t, err)
	n := len(session.Messages)
	require.Equal(t, 5, n)
	assert.Equal(t, models.RoleUser, session.Messages[n-2].Role)
	assert.Equal(t, "add a form", session.Messages[n-2].Content)
	require.NotNil(t, session.Messages[n-1].Workflow)
	assert.Equal(t, models.StepModification, session.Messages[n-1].Workflow.Step)
	assert.Equal(t, models.WorkflowError, session.Messages[n-1].Workflow.Status)
}

const selfContainedPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Todo</title>
  <style>
    body { font-family: sans-serif; }
    .done { text-decoration: line-through; }
  </style>
</head>
<body>
  <h1>Todo</h1>
  <ul id="list"></ul>
  <script>
    const items = JSON.parse(localStorage.getItem("todos") || "[]");
    document.getElementById("list").innerHTML = items.map(i => "<li>" + i + "</li>").join("");
  </script>
</body>
</html>`

func assertSelfContained(t *testing.T, doc string) {
	t.Helper()
	assert.Contains(t, doc, "<style>")
	assert.Contains(t, doc, "<script>")
	assert.NotContains(t, doc, "<link")
	assert.NotContains(t, doc, "<script src")
	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"), "leading text: %.40q", doc)
}

func TestModifyFile_KeepsDocumentSelfContained(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)
	require.NoError(t, f.sink.WriteFile(ctx, res.ProjectID, "index.html", selfContainedPage))

	f.model.modify = func(instruction, current string) string {
		updated := strings.Replace(current, "<title>Todo</title>", "<title>Foo</title>", 1)
		return "```html\n" + updated + "\n```"
	}

	out, err := f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "index.html", "change the title to Foo")
	require.NoError(t, err)
	assert.Contains(t, out.Content, "<title>Foo</title>")
	assertSelfContained(t, out.Content)

	prompts := f.gen.Prompts()
	modifyPrompt := prompts[len(prompts)-1]
	assert.Contains(t, modifyPrompt, "CSS stays in <style> tags and JavaScript in <script> tags")
	assert.Contains(t, modifyPrompt, "Do not add external stylesheets, scripts")

	stored, err := f.sink.ReadFile(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, out.Content, stored)
}

func TestModifyFile_NoChangeRoundTrips(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)
	require.NoError(t, f.sink.WriteFile(ctx, res.ProjectID, "index.html", selfContainedPage))

	f.model.modify = func(_, current string) string {
		return "```\n" + current + "\n```\n"
	}

	out, err := f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "index.html", "make no changes")
	require.NoError(t, err)
	assert.Equal(t, selfContainedPage, out.Content)
	assertSelfContained(t, out.Content)

	row, err := f.files.Get(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, selfContainedPage, row.Content)
	assert.Equal(t, models.FileGenerated, row.Status)
}

func TestModifyFile_ProviderFailureRecordsErrorMessage(t *testing.T) {
	ctx := context.Background()
	f := newGenFixture(t)
	res := f.plan(t)
	_, err := f.svc.GenerateFile(ctx, "u1", res.ChatSessionID, "index.html", nil, nil)
	require.NoError(t, err)
	f.model.modifyErr = &apperr.ProviderError{Provider: "gemini", Err: errors.New("quota exceeded")}

	_, err = f.svc.ModifyFile(ctx, "u1", res.ChatSessionID, "index.html", "add a footer")
	assert.Equal(t, apperr.KindProvider, apperr.Kind(err))

	stored, err := f.sink.ReadFile(ctx, res.ProjectID, "index.html")
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><title>index.html</title>", stored)

	session, err := f.sessions.Get(ctx, res.ChatSessionID)
	require.NoError(t, err)
	last := session.Messages[len(session.Messages)-1]
	assert.Equal(t, models.WorkflowError, last.Workflow.Status)
}
