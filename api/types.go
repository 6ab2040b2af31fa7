package api

import (
	"github.com/BaSui01/socialforge/types"
)

// =============================================================================
// 生成接口类型
// =============================================================================

// GenerateRequest 表示 JSON 形式的生成请求。
// 图片以 base64 编码内嵌；multipart 上传走表单字段，见 handlers。
type GenerateRequest struct {
	// 目标平台 schema 名列表
	Schemas []string `json:"schemas"`
	// base64 编码的图片数据（可选）
	ImageBase64 string `json:"image_base64,omitempty"`
	// 用户补充的业务上下文（可选）
	Context string `json:"context,omitempty"`
}

// GenerateResponse 表示一次生成请求的汇总结果，键为 schema 名。
type GenerateResponse struct {
	Results map[string]*types.JobResult `json:"results"`
}

// =============================================================================
// Schema 查询类型
// =============================================================================

// SchemaInfo 描述一个已注册平台的输出约束。
type SchemaInfo struct {
	Name   string      `json:"name"`
	Title  string      `json:"title,omitempty"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo 描述单个输出字段的约束。
type FieldInfo struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Required        bool   `json:"required"`
	MaxLength       int    `json:"max_length,omitempty"`
	MinItems        int    `json:"min_items,omitempty"`
	MaxItems        int    `json:"max_items,omitempty"`
	RequiredPrefix  string `json:"required_prefix,omitempty"`
	ForbiddenPrefix string `json:"forbidden_prefix,omitempty"`
}

// SchemaListResponse 是 /v1/schemas 的响应体。
type SchemaListResponse struct {
	Schemas []SchemaInfo `json:"schemas"`
}
