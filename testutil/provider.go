package testutil

import (
	"context"
	"sync"

	"github.com/BaSui01/socialforge/llm"
)

// FakeProvider 按脚本回放响应并记录全部请求，用于控制器与
// 客户端测试。脚本耗尽后重复最后一个条目。
type FakeProvider struct {
	mu       sync.Mutex
	script   []FakeStep
	cursor   int
	requests []*llm.Request
}

// FakeStep 是脚本中的一步：返回文本或返回错误。
type FakeStep struct {
	Text string
	Err  error
}

// NewFakeProvider 创建脚本化 Provider
func NewFakeProvider(steps ...FakeStep) *FakeProvider {
	return &FakeProvider{script: steps}
}

func (p *FakeProvider) Name() string { return "fake" }

func (p *FakeProvider) HealthCheck(context.Context) error { return nil }

// Generate 回放脚本中的下一步
func (p *FakeProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if len(p.script) == 0 {
		return &llm.Response{Provider: p.Name(), Text: "{}"}, nil
	}

	step := p.script[p.cursor]
	if p.cursor < len(p.script)-1 {
		p.cursor++
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return &llm.Response{Provider: p.Name(), Text: step.Text}, nil
}

// Requests 返回已记录请求的副本
func (p *FakeProvider) Requests() []*llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls 返回已发出的请求数
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
