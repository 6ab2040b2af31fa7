package handlers

import (
	"net/http"

	"github.com/BaSui01/socialforge/api"
	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🗂️ 平台 Schema Handler
// =============================================================================

// SchemasHandler 平台 schema 查询处理器
type SchemasHandler struct {
	registry *schema.Registry
	logger   *zap.Logger
}

// NewSchemasHandler 创建 schema 查询处理器
func NewSchemasHandler(registry *schema.Registry, logger *zap.Logger) *SchemasHandler {
	return &SchemasHandler{registry: registry, logger: logger}
}

// HandleList 处理 GET /v1/schemas 请求
func (h *SchemasHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	infos := make([]api.SchemaInfo, 0, len(names))
	for _, name := range names {
		d, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, toSchemaInfo(d))
	}

	WriteSuccess(w, api.SchemaListResponse{Schemas: infos})
}

// HandleGet 处理 GET /v1/schemas/{name} 请求
func (h *SchemasHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, err := h.registry.Get(name)
	if err != nil {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrUnknownSchema,
			"unknown schema: "+name, h.logger)
		return
	}

	WriteSuccess(w, toSchemaInfo(d))
}

func toSchemaInfo(d schema.Descriptor) api.SchemaInfo {
	info := api.SchemaInfo{
		Name:   d.Name,
		Title:  d.Title,
		Fields: make([]api.FieldInfo, 0, len(d.Fields)),
	}
	for _, f := range d.Fields {
		info.Fields = append(info.Fields, api.FieldInfo{
			Name:            f.Name,
			Type:            string(f.Type),
			Required:        f.Required,
			MaxLength:       f.MaxLength,
			MinItems:        f.MinItems,
			MaxItems:        f.MaxItems,
			RequiredPrefix:  f.RequiredPrefix,
			ForbiddenPrefix: f.ForbiddenPrefix,
		})
	}
	return info
}
