package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/BaSui01/socialforge/api"
	"github.com/BaSui01/socialforge/media"
	"github.com/BaSui01/socialforge/types"
	"go.uber.org/zap"
)

// =============================================================================
// ✨ 生成接口 Handler
// =============================================================================

// Generator 把一张图扇出到多个平台并汇总结果。
type Generator interface {
	RunAll(ctx context.Context, image types.ImagePayload, businessContext string, schemas []string) (map[string]*types.JobResult, error)
}

// GenerateHandler 生成接口处理器
type GenerateHandler struct {
	runner         Generator
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewGenerateHandler 创建生成处理器
func NewGenerateHandler(runner Generator, maxUploadBytes int64, logger *zap.Logger) *GenerateHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	return &GenerateHandler{
		runner:         runner,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HandleGenerate 处理内容生成请求。
//
// 支持两种形式：
//   - application/json: {"schemas": [...], "image_base64": "...", "context": "..."}
//   - multipart/form-data: 字段 image（文件）、schemas（逗号分隔）、context
//
// 响应按 schema 名汇总每个平台的结果；单平台硬失败不影响其他平台，
// 对应结果的 status 为 stopped_with_error。
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var (
		schemas         []string
		businessContext string
		rawImage        []byte
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		var ok bool
		schemas, businessContext, rawImage, ok = h.parseMultipart(w, r)
		if !ok {
			return
		}
	case mediaType == "application/json":
		var req api.GenerateRequest
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
		schemas = req.Schemas
		businessContext = req.Context
		if req.ImageBase64 != "" {
			data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
			if err != nil {
				WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
					"image_base64 is not valid base64", h.logger)
				return
			}
			rawImage = data
		}
	default:
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"Content-Type must be application/json or multipart/form-data", h.logger)
		return
	}

	if len(schemas) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"at least one schema is required", h.logger)
		return
	}

	var image types.ImagePayload
	if len(rawImage) > 0 {
		prepared, err := media.Prepare(rawImage)
		if err != nil {
			h.writeTypedError(w, err)
			return
		}
		image = prepared
	}

	results, err := h.runner.RunAll(r.Context(), image, businessContext, schemas)
	if err != nil && results == nil {
		h.writeTypedError(w, err)
		return
	}
	if err != nil {
		// 部分平台失败：结果里已带各自的状态，整体仍返回 200
		h.logger.Warn("generate finished with per-platform failures", zap.Error(err))
	}

	WriteSuccess(w, api.GenerateResponse{Results: results})
}

// parseMultipart 解析 multipart 表单，失败时已写出错误响应。
func (h *GenerateHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (schemas []string, businessContext string, rawImage []byte, ok bool) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"invalid multipart form", h.logger)
		return nil, "", nil, false
	}

	for _, part := range strings.Split(r.FormValue("schemas"), ",") {
		if name := strings.TrimSpace(part); name != "" {
			schemas = append(schemas, name)
		}
	}
	businessContext = r.FormValue("context")

	file, _, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"failed to read image upload", h.logger)
			return nil, "", nil, false
		}
		rawImage = data
	} else if err != http.ErrMissingFile {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"invalid image upload", h.logger)
		return nil, "", nil, false
	}

	return schemas, businessContext, rawImage, true
}

func (h *GenerateHandler) writeTypedError(w http.ResponseWriter, err error) {
	var typed *types.Error
	if !errors.As(err, &typed) {
		typed = types.NewError(types.ErrInvalidRequest, err.Error())
	}
	WriteError(w, typed, h.logger)
}
