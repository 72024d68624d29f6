package http

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	aiRequest "VectorOps/internal/modules/ai/application/dto/request"
	aiRespond "VectorOps/internal/modules/ai/application/dto/respond"
	"VectorOps/internal/modules/ai/application/service"
	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/pkg/back"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxTextBody = 16 << 20

// VectorHandler /vectors 下的写入与检索接口
type VectorHandler struct {
	ingestSvc  service.IngestService
	asyncSvc   service.AsyncIngestService
	answerSvc  service.AnswerService
	yearFormat string
}

func NewVectorHandler(ingestSvc service.IngestService, asyncSvc service.AsyncIngestService, answerSvc service.AnswerService, yearFormat string) *VectorHandler {
	return &VectorHandler{ingestSvc: ingestSvc, asyncSvc: asyncSvc, answerSvc: answerSvc, yearFormat: yearFormat}
}

func (h *VectorHandler) collection(c *gin.Context, param string) string {
	return service.ScopeToCollection(c.Param(param), h.yearFormat)
}

func wantsAsync(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("async"))
	return v
}

// IngestText 路由: POST /vectors/:collection/ingest-text 与 /text
// body 为 JSON {"text": "..."} 或纯文本
func (h *VectorHandler) IngestText(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTextBody))
	if err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	req := parseTextBody(c.ContentType(), raw)
	if strings.TrimSpace(req.Text) == "" {
		back.Error(c, xerr.BadRequest, "No text provided in request body")
		return
	}
	collection := h.collection(c, "collection")

	if wantsAsync(c) {
		h.submit(c, entity.IngestRequest{Collection: collection, Mode: entity.IngestModeText, Text: req.Text, Source: req.Source})
		return
	}

	res, err := h.ingestSvc.IngestText(c.Request.Context(), collection, req.Text, req.Source)
	if err != nil {
		back.Result(c, nil, toCodeError(err))
		return
	}
	back.Created(c, "ingested", aiRespond.IngestRespond{Ingested: res.Ingested, IDs: res.IDs})
}

// parseTextBody JSON 解析失败时整个 body 当作文本
func parseTextBody(contentType string, raw []byte) aiRequest.IngestTextRequest {
	trimmed := strings.TrimSpace(string(raw))
	if strings.Contains(contentType, "json") || strings.HasPrefix(trimmed, "{") {
		var req aiRequest.IngestTextRequest
		if err := json.Unmarshal(raw, &req); err == nil {
			return req
		}
	}
	return aiRequest.IngestTextRequest{Text: string(raw)}
}

// IngestDocument 路由: POST /vectors/:collection/document
func (h *VectorHandler) IngestDocument(c *gin.Context) {
	var req aiRequest.IngestDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	var meta any
	if req.Metadata != nil {
		meta = req.Metadata
	}
	id, err := h.ingestSvc.IngestDocument(c.Request.Context(), h.collection(c, "collection"), req.ID, req.Text, meta)
	if err != nil {
		back.Result(c, nil, toCodeError(err))
		return
	}
	back.Created(c, "ingested", aiRespond.DocumentRespond{ID: id})
}

// IngestItems 路由: POST /vectors/:collection/ingest-items，别名 /items /ingest
func (h *VectorHandler) IngestItems(c *gin.Context) {
	var req aiRequest.IngestItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	collection := h.collection(c, "collection")

	if wantsAsync(c) {
		h.submit(c, entity.IngestRequest{Collection: collection, Mode: entity.IngestModeItems, Items: req.Items})
		return
	}

	res, err := h.ingestSvc.IngestItems(c.Request.Context(), collection, req.Items)
	if err != nil {
		back.Result(c, nil, toCodeError(err))
		return
	}
	back.Created(c, "ingested", aiRespond.IngestRespond{Ingested: res.Ingested, IDs: res.IDs, Dropped: res.Dropped})
}

func (h *VectorHandler) submit(c *gin.Context, req entity.IngestRequest) {
	if h.asyncSvc == nil {
		back.Result(c, nil, toCodeError(service.ErrAsyncDisabled))
		return
	}
	queued, err := h.asyncSvc.Submit(c.Request.Context(), req)
	if err != nil {
		back.Result(c, nil, toCodeError(err))
		return
	}
	back.Accepted(c, aiRespond.AsyncIngestRespond{RequestID: queued.RequestID, Collection: queued.Collection})
}

// Search 路由: GET /vectors/:collection/search?q=&k= 与 POST {query, k}
func (h *VectorHandler) Search(c *gin.Context) {
	req := aiRequest.SearchRequest{K: service.DefaultTopK}
	var err error
	if c.Request.Method == "POST" {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBindQuery(&req)
	}
	if err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	collection := h.collection(c, "collection")
	data, err := h.answerSvc.Answer(c.Request.Context(), collection, req.Query, req.K)
	if err != nil {
		back.Result(c, nil, toCodeError(err))
		return
	}
	zlog.Info("vector search",
		zap.String("collection", collection),
		zap.Int("k", req.K),
		zap.Int("results", len(data.SearchResults)),
		zap.Bool("llm_answer", data.LLMAnswer != nil))
	back.Success(c, data)
}

// Compare 路由: GET /vectors/:collection/compare/:other?q=&k=
func (h *VectorHandler) Compare(c *gin.Context) {
	req := aiRequest.CompareRequest{K: service.DefaultTopK}
	if err := c.ShouldBindQuery(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.answerSvc.Compare(c.Request.Context(), h.collection(c, "collection"), h.collection(c, "other"), req.Query, req.K)
	back.Result(c, data, toCodeError(err))
}
