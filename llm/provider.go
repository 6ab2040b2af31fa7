package llm

import (
	"context"
	"time"

	"github.com/BaSui01/socialforge/types"
)

// Part 表示请求中的一段有序内容：纯文本或内联图片。
// 多模态请求按 Parts 的顺序发送，图文交错时顺序即语义。
type Part struct {
	Text  string
	Image *types.ImagePayload
}

// TextPart 构造文本片段。
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart 构造图片片段。
func ImagePart(img types.ImagePayload) Part { return Part{Image: &img} }

// Request 是一次生成调用的统一入参。Temperature 为 0 时由
// Provider 使用上游默认值。
type Request struct {
	Model       string
	System      string
	Parts       []Part
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Usage 记录一次调用的 token 消耗。
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Response 是 Provider 返回的统一出参，Text 为模型的完整文本输出。
type Response struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model"`
	Text     string `json:"text"`
	Usage    Usage  `json:"usage,omitempty"`
}

// Provider 抽象一个多模态上游。实现必须做到：
// 1. 每次 Generate 恰好一次上游调用，失败不在内部重试
// 2. 失败以 *types.Error 返回，携带错误码与 HTTP 状态
// 3. 尊重 ctx 取消
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
	HealthCheck(ctx context.Context) error
}
