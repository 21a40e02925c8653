package gate_test

import (
	"context"
	"fmt"

	"autodraft.app/assistant/common/llm"
	"autodraft.app/assistant/internal/model"
	"autodraft.app/assistant/internal/notify"
)

// mockMail keeps labels and drafts in memory. Search returns the notes
// messages unless searchFn is set.
type mockMail struct {
	messages []model.Message
	labels   map[string]map[string]bool
	threads  map[string]string

	searchFn      func(ctx context.Context, query string) ([]model.Message, error)
	createDraftFn func(ctx context.Context, req model.DraftRequest) (*model.Draft, error)
	hasLabelErr   error
	addLabelErr   error

	searches      []string
	drafts        []model.DraftRequest
	hasLabelCalls int
	addLabelCalls int
}

func newMockMail(messages ...model.Message) *mockMail {
	return &mockMail{messages: messages, labels: map[string]map[string]bool{}, threads: map[string]string{}}
}

func (m *mockMail) Search(ctx context.Context, query string, _ int64) ([]model.Message, error) {
	m.searches = append(m.searches, query)
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return m.messages, nil
}

func (m *mockMail) Get(_ context.Context, id string) (*model.Message, error) {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return &m.messages[i], nil
		}
	}
	return nil, fmt.Errorf("message %s not found", id)
}

func (m *mockMail) CreateDraft(ctx context.Context, req model.DraftRequest) (*model.Draft, error) {
	m.drafts = append(m.drafts, req)
	if m.createDraftFn != nil {
		return m.createDraftFn(ctx, req)
	}
	n := len(m.drafts)
	return &model.Draft{ID: fmt.Sprintf("draft-%d", n), MessageID: fmt.Sprintf("dm-%d", n)}, nil
}

func (m *mockMail) HasLabel(_ context.Context, messageID, label string) (bool, error) {
	m.hasLabelCalls++
	if m.hasLabelErr != nil {
		return false, m.hasLabelErr
	}
	return m.labels[messageID][label], nil
}

func (m *mockMail) AddLabel(_ context.Context, messageID, label string) error {
	m.addLabelCalls++
	if m.addLabelErr != nil {
		return m.addLabelErr
	}
	if m.labels[messageID] == nil {
		m.labels[messageID] = map[string]bool{}
	}
	m.labels[messageID][label] = true
	return nil
}

func (m *mockMail) FindThreadWithContact(_ context.Context, address string) (string, error) {
	return m.threads[address], nil
}

type mockLLM struct {
	completeFn func(ctx context.Context, req llm.Request) (*llm.Response, error)
	calls      int
}

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.calls++
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return &llm.Response{Content: "{}"}, nil
}

func (m *mockLLM) Model() string { return "mock" }

type mockResources struct {
	findFn func(ctx context.Context, name, address string) (model.Resources, error)
	calls  []string
}

func (m *mockResources) FindResources(ctx context.Context, name, address string) (model.Resources, error) {
	m.calls = append(m.calls, name)
	if m.findFn != nil {
		return m.findFn(ctx, name, address)
	}
	return model.Resources{NameUsed: name}, nil
}

type mockNotifier struct {
	ready  []notify.DraftNotice
	errors []string
}

func (m *mockNotifier) DraftReady(_ context.Context, d notify.DraftNotice) {
	m.ready = append(m.ready, d)
}

func (m *mockNotifier) Error(_ context.Context, message, _ string) {
	m.errors = append(m.errors, message)
}

type mockTimeline struct {
	timelineFn func(ctx context.Context, artist string) (string, error)
}

func (m *mockTimeline) ContractTimeline(ctx context.Context, artist string) (string, error) {
	if m.timelineFn != nil {
		return m.timelineFn(ctx, artist)
	}
	return "", nil
}

type recorded struct {
	runID   int64
	outcome model.DraftOutcome
	dryRun  bool
}

type mockRecorder struct {
	records []recorded
}

func (m *mockRecorder) Record(_ context.Context, runID int64, outcome model.DraftOutcome, dryRun bool) error {
	m.records = append(m.records, recorded{runID: runID, outcome: outcome, dryRun: dryRun})
	return nil
}
