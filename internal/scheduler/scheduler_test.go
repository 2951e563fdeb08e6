package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/analysis"
	"RiskSentinel/internal/cache"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/notifier"
)

type stubRunner struct {
	report *model.Report
	err    error
	calls  int
	last   analysis.Request
}

func (r *stubRunner) Run(_ context.Context, req analysis.Request) (*model.Report, error) {
	r.calls++
	r.last = req
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.report
	return &cp, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

func (n *recordingNotifier) SendWithRetry(ctx context.Context, text string, _ int) error {
	return n.Send(ctx, text)
}

func (n *recordingNotifier) StartPolling(ctx context.Context, _ notifier.CommandHandler) {
	<-ctx.Done()
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

func testReport(alerts ...model.Alert) *model.Report {
	return &model.Report{
		GeneratedAt: time.Now().UTC(),
		HorizonDays: 30,
		Profile:     "annualized",
		Assets:      []model.AssetAnalysis{{Symbol: "ETH", CurrentPrice: 3000, Label: model.RiskMedium}},
		Alerts:      alerts,
	}
}

func newTestScheduler(r *stubRunner, n *recordingNotifier, store cache.Store) *Scheduler {
	req := analysis.Request{Symbols: []string{"ETH"}, Benchmark: "BTC", HorizonDays: 30}
	return NewScheduler(context.Background(), r, n, store, req)
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, &recordingNotifier{}, cache.NewMemoryStore())
	require.NoError(t, s.RegisterAll("0 5 0 * * *", "0 0 8 * * 1"))
	assert.Len(t, s.Cron.Entries(), 3)

	s = newTestScheduler(&stubRunner{}, &recordingNotifier{}, nil)
	require.NoError(t, s.RegisterAll("0 5 0 * * *", ""))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestRegisterAll_BadSpec(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, &recordingNotifier{}, nil)
	err := s.RegisterAll("every now and then", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register analysis task")
}

func TestAnalysisTask_SendsOnlyWithAlerts(t *testing.T) {
	r := &stubRunner{report: testReport()}
	n := &recordingNotifier{}
	s := newTestScheduler(r, n, nil)

	s.analysisTask()
	assert.Empty(t, n.messages())
	require.NotNil(t, s.Latest())

	r.report = testReport(model.Alert{Kind: model.AlertHighRisk, Symbol: "ETH", Severity: model.SeverityWarning, Message: "ETH classified High risk"})
	s.analysisTask()
	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Risk alerts")
	assert.Contains(t, msgs[0], "ETH classified High risk")
	assert.Equal(t, []string{"ETH"}, r.last.Symbols)
}

func TestRunNow_ReportsFailure(t *testing.T) {
	r := &stubRunner{err: errors.New("benchmark BTC: data unavailable")}
	n := &recordingNotifier{}
	s := newTestScheduler(r, n, nil)

	s.RunNow()
	msgs := n.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Risk analysis failed")
	assert.Nil(t, s.Latest())
}

func TestSummaryTask_ReusesFreshReport(t *testing.T) {
	r := &stubRunner{report: testReport()}
	n := &recordingNotifier{}
	s := newTestScheduler(r, n, nil)

	s.RunNow()
	s.summaryTask()
	assert.Equal(t, 1, r.calls)
	assert.Len(t, n.messages(), 2)

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	s.summaryTask()
	assert.Equal(t, 2, r.calls)
}

func TestPurgeTask(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, cache.Key("ETH", 30), model.PriceSeries{Symbol: "ETH"}))

	s := newTestScheduler(&stubRunner{}, &recordingNotifier{}, store)
	s.purgeTask()
	_, ok, _ := store.Get(ctx, cache.Key("ETH", 30))
	assert.True(t, ok)

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	s.purgeTask()
	_, ok, _ = store.Get(ctx, cache.Key("ETH", 30))
	assert.False(t, ok)
}

func TestHandleCommand(t *testing.T) {
	r := &stubRunner{report: testReport(model.Alert{Kind: model.AlertVolatilitySpike, Symbol: "ETH", Severity: model.SeverityCritical, Message: "ETH volatility spike"})}
	s := newTestScheduler(r, &recordingNotifier{}, nil)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "/alerts"), "No analysis has run yet")
	assert.Contains(t, s.HandleCommand(ctx, "/risk"), "ETH")
	assert.Contains(t, s.HandleCommand(ctx, "/alerts"), "ETH volatility spike")
	assert.Contains(t, s.HandleCommand(ctx, "/whatever"), "/risk")
	assert.Equal(t, 1, r.calls)
}
