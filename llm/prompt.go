package llm

import (
	"fmt"
	"strings"

	"github.com/BaSui01/socialforge/schema"
)

// analysisSystemPrompt 是图片分析步骤的系统提示。分析结果作为
// 上下文注入后续每一次生成，保证多平台文案对同一张图的理解一致。
const analysisSystemPrompt = `You are an expert visual analyst for social media marketing.
Analyze the provided image and respond with a single valid JSON object, nothing else:
{
  "content_type": "...",
  "main_subjects": ["..."],
  "style_and_mood": "...",
  "target_audience": "..."
}`

// generationSystemPrompt 是文案生成步骤的系统提示。
const generationSystemPrompt = `You are an expert social media content creator.
You write copy that is on-brand, platform-appropriate, and strictly follows the requested output format.`

// Analysis 是图片分析步骤的结构化结果。
type Analysis struct {
	ContentType    string   `json:"content_type"`
	MainSubjects   []string `json:"main_subjects"`
	StyleAndMood   string   `json:"style_and_mood"`
	TargetAudience string   `json:"target_audience"`
}

// Context 渲染分析结果为提示词上下文块。
func (a *Analysis) Context() string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("<IMAGE_ANALYSIS>\n")
	fmt.Fprintf(&b, "Content type: %s\n", a.ContentType)
	fmt.Fprintf(&b, "Main subjects: %s\n", strings.Join(a.MainSubjects, ", "))
	fmt.Fprintf(&b, "Style and mood: %s\n", a.StyleAndMood)
	fmt.Fprintf(&b, "Target audience: %s\n", a.TargetAudience)
	b.WriteString("</IMAGE_ANALYSIS>")
	return b.String()
}

// BuildGenerationPrompt 组装一次生成调用的用户提示：平台指令、
// 格式规则、图片分析上下文、用户补充说明，以及上一轮的纠错反馈。
// 反馈块为空字符串时不追加。
func BuildGenerationPrompt(d schema.Descriptor, analysis *Analysis, userContext, feedback string) string {
	sections := make([]string, 0, 5)

	platform := d.Title
	if platform == "" {
		platform = d.Name
	}
	sections = append(sections, fmt.Sprintf("Create content for %s based on the attached image.", platform))
	if d.Prompt != "" {
		sections = append(sections, d.Prompt)
	}
	if ctx := analysis.Context(); ctx != "" {
		sections = append(sections, ctx)
	}
	if userContext != "" {
		sections = append(sections, "Additional context from the user:\n"+userContext)
	}
	sections = append(sections, d.FormatInstructions())
	if feedback != "" {
		sections = append(sections, feedback)
	}

	return strings.Join(sections, "\n\n")
}
