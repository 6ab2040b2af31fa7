package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/BaSui01/socialforge/store"
	"github.com/BaSui01/socialforge/types"
	"go.uber.org/zap"
)

// =============================================================================
// 📜 任务历史 Handler
// =============================================================================

// JobReader 提供任务历史查询。
type JobReader interface {
	GetResult(ctx context.Context, jobID string) (*types.JobResult, error)
	ListRecent(ctx context.Context, limit int) ([]*types.JobResult, error)
}

// JobsHandler 任务历史处理器
type JobsHandler struct {
	reader JobReader
	logger *zap.Logger
}

// NewJobsHandler 创建任务历史处理器
func NewJobsHandler(reader JobReader, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{reader: reader, logger: logger}
}

// HandleGet 处理 GET /v1/jobs/{id} 请求
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"job id is required", h.logger)
		return
	}

	result, err := h.reader.GetResult(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteErrorMessage(w, http.StatusNotFound, types.ErrInvalidRequest,
				"job not found", h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInvalidConfig,
			"failed to load job", h.logger)
		return
	}

	WriteSuccess(w, result)
}

// HandleList 处理 GET /v1/jobs 请求，按创建时间倒序返回最近的任务。
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"limit must be an integer between 1 and 200", h.logger)
			return
		}
		limit = n
	}

	results, err := h.reader.ListRecent(r.Context(), limit)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInvalidConfig,
			"failed to list jobs", h.logger)
		return
	}

	WriteSuccess(w, results)
}
