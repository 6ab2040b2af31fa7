package controller

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/socialforge/internal/cache"
	"github.com/BaSui01/socialforge/llm"
	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/testutil"
	"github.com/BaSui01/socialforge/types"
)

const (
	validTweet   = `{"tweet":"launch day","hashtags":["#launch","#startup"]}`
	shortHashtag = `{"tweet":"launch day","hashtags":["launch","#startup"]}`
	analysisJSON = `{"content_type":"product photo","main_subjects":["sneakers"],"style_and_mood":"energetic","target_audience":"runners"}`
)

func newController(t *testing.T, provider llm.Provider, cfg Config, opts ...Option) *Controller {
	t.Helper()
	client := llm.NewClient(provider, zap.NewNop())
	return New(client, schema.Builtin(), cfg, zap.NewNop(), opts...)
}

func textJob(schemaName string) types.GenerationJob {
	return types.NewJob(schemaName, types.ImagePayload{}, "")
}

func TestRunPassesFirstAttempt(t *testing.T) {
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: validTweet})
	c := newController(t, p, DefaultConfig())

	result, err := c.Run(context.Background(), textJob("x"))
	require.NoError(t, err)

	assert.Equal(t, types.StatusPassed, result.Status)
	assert.True(t, result.Verified())
	assert.Equal(t, "launch day", result.Content["tweet"])
	require.Len(t, result.Attempts, 1)
	assert.True(t, result.Attempts[0].Outcome.Passed())
	assert.Equal(t, 1, p.Calls())
}

func TestRunRetriesWithFeedback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NormalizeRepairs = false
	p := testutil.NewFakeProvider(
		testutil.FakeStep{Text: shortHashtag},
		testutil.FakeStep{Text: validTweet},
	)
	c := newController(t, p, cfg)

	result, err := c.Run(context.Background(), textJob("x"))
	require.NoError(t, err)

	assert.Equal(t, types.StatusPassed, result.Status)
	require.Len(t, result.Attempts, 2)
	assert.False(t, result.Attempts[0].Outcome.Passed())
	assert.Equal(t, 2, p.Calls())

	reqs := p.Requests()
	// 首次尝试不带反馈，重试带编号反馈与上次的具体问题
	first := reqs[0].Parts[len(reqs[0].Parts)-1].Text
	second := reqs[1].Parts[len(reqs[1].Parts)-1].Text
	assert.NotContains(t, first, "<PREVIOUS_ATTEMPT_FEEDBACK>")
	assert.Contains(t, second, "<PREVIOUS_ATTEMPT_FEEDBACK>")
	assert.Contains(t, second, `1. Hashtags: missing "#" on: [launch]`)

	// 温度调度：首次 0.7，重试 0.4
	assert.InDelta(t, 0.7, reqs[0].Temperature, 1e-6)
	assert.InDelta(t, 0.4, reqs[1].Temperature, 1e-6)
}

func TestRunBudgetExhaustedReturnsUnverified(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.NormalizeRepairs = false
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: shortHashtag})
	c := newController(t, p, cfg)

	result, err := c.Run(context.Background(), textJob("x"))
	require.NoError(t, err)

	assert.Equal(t, types.StatusUnverified, result.Status)
	assert.False(t, result.Verified())
	// 预算耗尽仍返回最后一次输出
	assert.Equal(t, "launch day", result.Content["tweet"])
	assert.Len(t, result.Attempts, 3)
	// 绝不超出尝试预算
	assert.Equal(t, 3, p.Calls())
}

func TestRunNormalizeRepairsBeforeValidation(t *testing.T) {
	// 开启修复后，缺 '#' 的项被补齐，首次尝试即通过
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: shortHashtag})
	c := newController(t, p, DefaultConfig())

	result, err := c.Run(context.Background(), textJob("x"))
	require.NoError(t, err)

	assert.Equal(t, types.StatusPassed, result.Status)
	assert.Equal(t, []string{"#launch", "#startup"}, result.Content["hashtags"])
	assert.Equal(t, 1, p.Calls())
}

func TestRunHardFailureStopsImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 5
	cfg.NormalizeRepairs = false
	p := testutil.NewFakeProvider(
		testutil.FakeStep{Text: shortHashtag},
		testutil.FakeStep{Err: types.NewError(types.ErrQuotaExceeded, "quota exhausted")},
		testutil.FakeStep{Text: validTweet},
	)
	c := newController(t, p, cfg)

	result, err := c.Run(context.Background(), textJob("x"))
	require.Error(t, err)
	assert.Equal(t, types.ErrQuotaExceeded, types.GetErrorCode(err))

	require.NotNil(t, result)
	assert.Equal(t, types.StatusStopped, result.Status)
	require.Len(t, result.ErrorHistory, 1)
	assert.Contains(t, result.ErrorHistory[0], "quota exhausted")
	// 第二次调用已失败，剩余预算不再使用
	assert.Equal(t, 2, p.Calls())
}

func TestRunMalformedResponseIsHard(t *testing.T) {
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: "I cannot help with that."})
	c := newController(t, p, DefaultConfig())

	result, err := c.Run(context.Background(), textJob("x"))
	require.Error(t, err)
	assert.Equal(t, types.ErrMalformedResponse, types.GetErrorCode(err))
	assert.Equal(t, types.StatusStopped, result.Status)
	assert.Equal(t, 1, p.Calls())
}

func TestRunUnknownSchemaFailsBeforeAnyCall(t *testing.T) {
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: validTweet})
	c := newController(t, p, DefaultConfig())

	result, err := c.Run(context.Background(), textJob("friendster"))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, types.ErrUnknownSchema, types.GetErrorCode(err))
	assert.Equal(t, 0, p.Calls())
}

func TestRunAnalyzesImageOnce(t *testing.T) {
	p := testutil.NewFakeProvider(
		testutil.FakeStep{Text: analysisJSON},
		testutil.FakeStep{Text: validTweet},
	)
	c := newController(t, p, DefaultConfig())

	result, err := c.Run(context.Background(), types.NewJob("x", testutil.TestImage(t), "spring sale"))
	require.NoError(t, err)
	assert.Equal(t, types.StatusPassed, result.Status)

	// 一次分析 + 一次生成；生成提示包含分析上下文与业务上下文
	require.Equal(t, 2, p.Calls())
	prompt := p.Requests()[1].Parts[1].Text
	assert.Contains(t, prompt, "<IMAGE_ANALYSIS>")
	assert.Contains(t, prompt, "sneakers")
	assert.Contains(t, prompt, "spring sale")
}

func TestRunAnalysisCacheSkipsSecondAnalysis(t *testing.T) {
	srv := miniredis.RunT(t)
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = srv.Addr()
	mgr, err := cache.NewManager(cacheCfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	p := testutil.NewFakeProvider(
		testutil.FakeStep{Text: analysisJSON},
		testutil.FakeStep{Text: validTweet},
	)
	c := newController(t, p, DefaultConfig(), WithCache(mgr))

	img := testutil.TestImage(t)
	_, err = c.Run(context.Background(), types.NewJob("x", img, ""))
	require.NoError(t, err)
	require.Equal(t, 2, p.Calls())

	// 同一张图的第二个任务命中缓存，只发生成调用
	_, err = c.Run(context.Background(), types.NewJob("x", img, ""))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Calls())
}

func TestRunContextCancelled(t *testing.T) {
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: validTweet})
	c := newController(t, p, DefaultConfig())

	result, err := c.Run(testutil.CancelledContext(), textJob("x"))
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, types.StatusStopped, result.Status)
}

// cancellingProvider 在首次调用后取消任务上下文。
type cancellingProvider struct {
	cancel context.CancelFunc
	calls  int
}

func (p *cancellingProvider) Name() string                      { return "fake" }
func (p *cancellingProvider) HealthCheck(context.Context) error { return nil }

func (p *cancellingProvider) Generate(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	p.calls++
	p.cancel()
	return &llm.Response{Provider: "fake", Text: shortHashtag}, nil
}

func TestRunCancelledDuringRetryStops(t *testing.T) {
	// 校验失败进入重试后上下文被取消：任务收敛到 Stopped，
	// 状态机不应走出任何非法迁移。
	core, logs := observer.New(zapcore.ErrorLevel)
	cfg := DefaultConfig()
	cfg.NormalizeRepairs = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &cancellingProvider{cancel: cancel}
	client := llm.NewClient(p, zap.NewNop())
	c := New(client, schema.Builtin(), cfg, zap.New(core))

	result, err := c.Run(ctx, textJob("x"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)

	assert.Equal(t, types.StatusStopped, result.Status)
	require.Len(t, result.ErrorHistory, 1)
	assert.Contains(t, result.ErrorHistory[0], "context canceled")
	// 取消后不再发起新的尝试
	assert.Equal(t, 1, p.calls)
	require.Len(t, result.Attempts, 1)

	for _, entry := range logs.All() {
		assert.NotEqual(t, "invalid state transition", entry.Message)
	}
}

type recordingStore struct {
	saved []*types.JobResult
}

func (s *recordingStore) SaveResult(_ context.Context, r *types.JobResult) error {
	s.saved = append(s.saved, r)
	return nil
}

func TestRunPersistsResult(t *testing.T) {
	st := &recordingStore{}
	p := testutil.NewFakeProvider(testutil.FakeStep{Text: validTweet})
	c := newController(t, p, DefaultConfig(), WithStore(st))

	result, err := c.Run(context.Background(), textJob("x"))
	require.NoError(t, err)
	require.Len(t, st.saved, 1)
	assert.Equal(t, result.JobID, st.saved[0].JobID)
}
