package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/store"
	"github.com/sells-group/yuutai-cli/internal/workspace"
)

// --- Source Mock ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Today() string {
	return m.Called().String(0)
}

func (m *mockSource) FetchDaily(ctx context.Context, date string) ([]model.Disclosure, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Disclosure), args.Error(1)
}

func (m *mockSource) FetchForCompany(ctx context.Context, code string, daysBack int) ([]model.Disclosure, error) {
	args := m.Called(ctx, code, daysBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Disclosure), args.Error(1)
}

func (m *mockSource) Search(ctx context.Context, date string, keywords []string) ([]model.Disclosure, error) {
	args := m.Called(ctx, date, keywords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Disclosure), args.Error(1)
}

func (m *mockSource) Download(ctx context.Context, d model.Disclosure) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

// --- Sink Mock ---

type mockSink struct {
	mock.Mock
}

func (m *mockSink) EnsureTable(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockSink) IsDuplicate(ctx context.Context, tableID string, d model.Disclosure) bool {
	return m.Called(ctx, tableID, d).Bool(0)
}

func (m *mockSink) CreateRow(ctx context.Context, tableID string, d model.Disclosure) (string, bool, error) {
	args := m.Called(ctx, tableID, d)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSink) Attach(ctx context.Context, rowID, path string) workspace.AttachOutcome {
	args := m.Called(ctx, rowID, path)
	return args.Get(0).(workspace.AttachOutcome)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, kind model.RunKind, target string) (*model.Run, error) {
	args := m.Called(ctx, kind, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) FinishRun(ctx context.Context, runID string, stats *model.BatchStats, runErr error) error {
	args := m.Called(ctx, runID, stats, runErr)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
