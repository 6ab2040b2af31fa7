package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/types"
)

// rawSnippetLimit bounds how much of an unparsable upstream reply is
// carried in the error message.
const rawSnippetLimit = 200

// promptTokenLimit 是提示词 token 估算的上限，超过直接拒绝，
// 避免一次注定失败的计费调用。
const promptTokenLimit = 100_000

// Recorder 接收每次上游调用的结果指标。
type Recorder interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// Client 在 Provider 之上执行本系统的两种调用：图片分析与文案生成。
// 每个方法恰好发起一次上游调用，失败直接上抛。重试是控制器的职责，
// 不在这里做。
type Client struct {
	provider  Provider
	maxTokens int
	recorder  Recorder
	estimator *Estimator
	logger    *zap.Logger
}

// NewClient 创建生成客户端。
func NewClient(provider Provider, logger *zap.Logger) *Client {
	return &Client{
		provider:  provider,
		maxTokens: 2048,
		estimator: NewEstimator(),
		logger:    logger.With(zap.String("component", "llm.client")),
	}
}

// WithRecorder 返回挂接了指标记录器的 Client 副本。接收者不变，
// 同一底层 Client 可以派生出各带各的记录器的副本而互不干扰。
func (c Client) WithRecorder(r Recorder) *Client {
	c.recorder = r
	return &c
}

// Provider 返回底层 Provider。
func (c *Client) Provider() Provider { return c.provider }

// generate 发起上游调用并记录指标。
func (c *Client) generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := c.provider.Generate(ctx, req)

	if c.recorder != nil {
		status := "ok"
		model := ""
		prompt, completion := 0, 0
		if err != nil {
			status = string(types.GetErrorCode(err))
		}
		if resp != nil {
			model = resp.Model
			prompt = resp.Usage.PromptTokens
			completion = resp.Usage.CompletionTokens
		}
		c.recorder.RecordLLMRequest(c.provider.Name(), model, status, time.Since(start), prompt, completion)
	}

	return resp, err
}

// AnalyzeImage 执行图片分析调用，返回结构化分析结果。
func (c *Client) AnalyzeImage(ctx context.Context, img types.ImagePayload) (*Analysis, error) {
	start := time.Now()
	resp, err := c.generate(ctx, &Request{
		System: analysisSystemPrompt,
		Parts: []Part{
			ImagePart(img),
			TextPart("Analyze this image."),
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	payload, err := extractJSON(resp.Text)
	if err != nil {
		return nil, err
	}
	var analysis Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, malformed(resp.Text, err)
	}

	c.logger.Debug("图片分析完成",
		zap.String("provider", resp.Provider),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))
	return &analysis, nil
}

// GenerateContent 执行一次文案生成调用并解析为字段映射。
// 返回解析后的候选输出与模型原始文本。任何解析失败都归类为
// MALFORMED_RESPONSE，由调用方决定终止。
func (c *Client) GenerateContent(
	ctx context.Context,
	d schema.Descriptor,
	img types.ImagePayload,
	analysis *Analysis,
	userContext, feedback string,
	temperature float32,
) (map[string]any, string, error) {
	prompt := BuildGenerationPrompt(d, analysis, userContext, feedback)
	if est := c.estimator.Estimate(prompt); est > promptTokenLimit {
		c.logger.Warn("提示词超长，拒绝调用",
			zap.String("schema", d.Name),
			zap.Int("estimated_tokens", est))
		return nil, "", types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("prompt too large: ~%d tokens exceeds limit of %d", est, promptTokenLimit))
	}

	parts := make([]Part, 0, 2)
	if !img.Empty() {
		parts = append(parts, ImagePart(img))
	}
	parts = append(parts, TextPart(prompt))

	resp, err := c.generate(ctx, &Request{
		System:      generationSystemPrompt,
		Parts:       parts,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, "", err
	}

	payload, err := extractJSON(resp.Text)
	if err != nil {
		return nil, resp.Text, err
	}
	var candidate map[string]any
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return nil, resp.Text, malformed(resp.Text, err)
	}
	// 形状检查：对象里一个 schema 字段都没有说明模型答非所问，
	// 归类为响应不可解析。缺个别字段交给校验器，可重试。
	if !matchesShape(d, candidate) {
		return nil, resp.Text, malformed(resp.Text, nil)
	}
	return candidate, resp.Text, nil
}

// matchesShape 判断候选输出是否至少含有一个 schema 字段名。
func matchesShape(d schema.Descriptor, candidate map[string]any) bool {
	for _, name := range d.FieldNames() {
		if _, ok := candidate[name]; ok {
			return true
		}
	}
	return false
}

// extractJSON 从模型文本中取出 JSON 对象：剥掉 Markdown 代码围栏，
// 再截取首个 '{' 到末尾 '}' 之间的内容。模型偶尔会在 JSON 前后
// 加解释性文字，这里容忍这种输出。
func extractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, malformed(text, nil)
	}
	return json.RawMessage(s[start : end+1]), nil
}

func malformed(raw string, cause error) *types.Error {
	snippet := raw
	if len(snippet) > rawSnippetLimit {
		snippet = snippet[:rawSnippetLimit] + "..."
	}
	err := types.NewError(types.ErrMalformedResponse, "model output is not a JSON object: "+snippet)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
