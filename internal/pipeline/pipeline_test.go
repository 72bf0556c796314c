package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/workspace"
)

func TestProcessDate(t *testing.T) {
	src, sink, st := new(mockSource), new(mockSink), new(mockStore)
	ctx := context.Background()

	d := disc("100", "7203")
	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil).Once()
	src.On("FetchDaily", ctx, "2025-01-15").Return([]model.Disclosure{d}, nil).Once()
	sink.On("CreateRow", ctx, "db-1", d).Return("row-1", true, nil).Once()
	st.On("CreateRun", ctx, model.RunKindDate, "2025-01-15").Return(&model.Run{ID: "run-1"}, nil).Once()
	st.On("FinishRun", ctx, "run-1", &model.BatchStats{Total: 1, Success: 1}, nil).Return(nil).Once()

	res := New(src, sink, st, Options{}).ProcessDate(ctx, "2025-01-15")
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Stats.Success)
	src.AssertExpectations(t)
	sink.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestProcessDate_DefaultsToToday(t *testing.T) {
	src, sink := new(mockSource), new(mockSink)
	ctx := context.Background()

	src.On("Today").Return("2025-02-01")
	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil)
	src.On("FetchDaily", ctx, "2025-02-01").Return([]model.Disclosure{}, nil).Once()

	res := New(src, sink, nil, Options{}).ProcessDate(ctx, "")
	assert.True(t, res.Success)
	assert.Equal(t, "2025-02-01", res.Date)
	assert.Zero(t, res.Processed)
}

func TestProcessScheduled_RecordsScheduleKind(t *testing.T) {
	src, sink, st := new(mockSource), new(mockSink), new(mockStore)
	ctx := context.Background()

	src.On("Today").Return("2025-02-03")
	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil)
	src.On("FetchDaily", ctx, "2025-02-03").Return([]model.Disclosure{}, nil).Once()
	st.On("CreateRun", ctx, model.RunKindSchedule, "2025-02-03").Return(&model.Run{ID: "run-9"}, nil).Once()
	st.On("FinishRun", ctx, "run-9", &model.BatchStats{}, nil).Return(nil).Once()

	res := New(src, sink, st, Options{}).ProcessScheduled(ctx)
	assert.True(t, res.Success)
	assert.Equal(t, "2025-02-03", res.Date)
	st.AssertExpectations(t)
}

func TestProcessDate_TableFailure(t *testing.T) {
	src, sink, st := new(mockSource), new(mockSink), new(mockStore)
	ctx := context.Background()

	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("", assert.AnError).Once()
	st.On("CreateRun", ctx, model.RunKindDate, "2025-01-15").Return(&model.Run{ID: "run-1"}, nil).Once()
	st.On("FinishRun", ctx, "run-1", mock.Anything, mock.MatchedBy(func(err error) bool { return err != nil })).
		Return(nil).Once()

	res := New(src, sink, st, Options{}).ProcessDate(ctx, "2025-01-15")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	src.AssertNotCalled(t, "FetchDaily", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestProcessDate_FetchFailure(t *testing.T) {
	src, sink := new(mockSource), new(mockSink)
	ctx := context.Background()

	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil)
	src.On("FetchDaily", ctx, "2025-01-15").Return(nil, assert.AnError).Once()

	res := New(src, sink, nil, Options{}).ProcessDate(ctx, "2025-01-15")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, assert.AnError.Error())
}

func TestProcessDate_DryRunSkipsTableAndLedger(t *testing.T) {
	src, sink, st := new(mockSource), new(mockSink), new(mockStore)
	ctx := context.Background()

	src.On("FetchDaily", ctx, "2025-01-15").Return([]model.Disclosure{disc("1", "7203")}, nil).Once()

	res := New(src, sink, st, Options{DryRun: true}).ProcessDate(ctx, "2025-01-15")
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Success)
	sink.AssertNotCalled(t, "EnsureTable", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDate_LedgerFailureDoesNotStop(t *testing.T) {
	src, sink, st := new(mockSource), new(mockSink), new(mockStore)
	ctx := context.Background()

	st.On("CreateRun", ctx, model.RunKindDate, "2025-01-15").Return(nil, assert.AnError).Once()
	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil)
	src.On("FetchDaily", ctx, "2025-01-15").Return([]model.Disclosure{}, nil).Once()

	res := New(src, sink, st, Options{}).ProcessDate(ctx, "2025-01-15")
	assert.True(t, res.Success)
	st.AssertNotCalled(t, "FinishRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRange(t *testing.T) {
	src, sink := new(mockSource), new(mockSink)
	ctx := context.Background()

	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil)
	src.On("FetchDaily", ctx, "2025-01-30").Return([]model.Disclosure{disc("1", "7203")}, nil).Once()
	src.On("FetchDaily", ctx, "2025-01-31").Return(nil, assert.AnError).Once()
	src.On("FetchDaily", ctx, "2025-02-01").Return([]model.Disclosure{}, nil).Once()
	sink.On("CreateRow", ctx, "db-1", mock.Anything).Return("row-1", true, nil).Once()

	results, err := New(src, sink, nil, Options{}).ProcessRange(ctx, "2025-01-30", "2025-02-01")
	require.NoError(t, err)
	require.Len(t, results, 3)

	sum := model.Summarize(results)
	assert.Equal(t, 3, sum.TotalDates)
	assert.Equal(t, 2, sum.SuccessfulDates)
	assert.Equal(t, 1, sum.FailedDates)
	assert.Equal(t, 1, sum.TotalDisclosures)
	assert.Equal(t, 1, sum.SuccessfulUploads)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, "2025-01-31", sum.Errors[0].Date)
}

func TestProcessRange_PausesBetweenDays(t *testing.T) {
	src, sink := new(mockSource), new(mockSink)
	ctx := context.Background()

	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil)
	src.On("FetchDaily", ctx, mock.Anything).Return([]model.Disclosure{}, nil)

	start := time.Now()
	_, err := New(src, sink, nil, Options{RangePause: 30 * time.Millisecond}).
		ProcessRange(ctx, "2025-01-01", "2025-01-03")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestProcessRange_InvalidDates(t *testing.T) {
	p := New(new(mockSource), new(mockSink), nil, Options{})
	ctx := context.Background()

	_, err := p.ProcessRange(ctx, "2025/01/01", "")
	assert.Error(t, err)
	_, err = p.ProcessRange(ctx, "2025-01-02", "2025-01-01")
	assert.Error(t, err)
}

func TestProcessRange_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := New(new(mockSource), new(mockSink), nil, Options{}).
		ProcessRange(ctx, "2025-01-01", "2025-01-05")
	assert.Error(t, err)
	assert.Empty(t, results)
}

func TestProcessCompany(t *testing.T) {
	src, sink := new(mockSource), new(mockSink)
	ctx := context.Background()

	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil).Once()
	src.On("FetchForCompany", ctx, "7203", 30).
		Return([]model.Disclosure{disc("1", "7203"), disc("2", "7203")}, nil).Once()
	sink.On("CreateRow", ctx, "db-1", mock.Anything).Return("row", true, nil).Twice()

	stats, err := New(src, sink, nil, Options{}).ProcessCompany(ctx, "7203", 30)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStats{Total: 2, Success: 2}, stats)
}

func TestProcessCompany_FetchError(t *testing.T) {
	src, sink := new(mockSource), new(mockSink)
	ctx := context.Background()

	sink.On("EnsureTable", ctx, workspace.DatabaseName).Return("db-1", nil).Once()
	src.On("FetchForCompany", ctx, "7203", 7).Return(nil, assert.AnError).Once()

	_, err := New(src, sink, nil, Options{}).ProcessCompany(ctx, "7203", 7)
	assert.Error(t, err)
}

func TestSearchKeywords(t *testing.T) {
	src := new(mockSource)
	ctx := context.Background()

	kw := []string{"クオカード"}
	src.On("Search", ctx, "2025-01-15", kw).Return([]model.Disclosure{disc("1", "7203")}, nil).Once()

	ds, err := New(src, new(mockSink), nil, Options{}).SearchKeywords(ctx, "2025-01-15", kw)
	require.NoError(t, err)
	assert.Len(t, ds, 1)
}

func TestReport(t *testing.T) {
	src := new(mockSource)
	ctx := context.Background()

	src.On("FetchDaily", ctx, "2025-01-15").Return([]model.Disclosure{disc("1", "7203"), disc("2", "6758")}, nil).Once()

	r, err := New(src, new(mockSink), nil, Options{}).Report(ctx, "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalDisclosures)
	assert.Equal(t, "合計 2 件の株主優待開示; カテゴリ別: 優待変更: 2件", r.Summary)
}

func TestReport_Error(t *testing.T) {
	src := new(mockSource)
	ctx := context.Background()

	src.On("FetchDaily", ctx, "2025-01-15").Return(nil, assert.AnError).Once()

	r, err := New(src, new(mockSink), nil, Options{}).Report(ctx, "2025-01-15")
	assert.Error(t, err)
	assert.Equal(t, "2025-01-15", r.Date)
}
