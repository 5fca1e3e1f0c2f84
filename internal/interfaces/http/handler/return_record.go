package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	koudenapp "github.com/kouden/backend/internal/application/kouden"
	"github.com/kouden/backend/internal/interfaces/http/dto"
	"github.com/kouden/backend/internal/interfaces/http/middleware"
)

// ReturnRecordService is the application surface the handler drives.
// *koudenapp.ReturnRecordService implements it.
type ReturnRecordService interface {
	Create(ctx context.Context, actor, entryID uuid.UUID, req koudenapp.CreateReturnRecordRequest) (*koudenapp.ReturnRecordResponse, error)
	GetByEntryID(ctx context.Context, entryID uuid.UUID) (*koudenapp.ReturnRecordResponse, error)
	ListByLedger(ctx context.Context, koudenID uuid.UUID) ([]koudenapp.ReturnRecordResponse, error)
	DeleteByEntryID(ctx context.Context, actor, entryID uuid.UUID) (*koudenapp.DeleteResult, error)
	DeleteMany(ctx context.Context, actor uuid.UUID, ids []uuid.UUID) (*koudenapp.DeleteResult, error)
	UpdateField(ctx context.Context, actor, recordID uuid.UUID, req koudenapp.UpdateFieldRequest) (*koudenapp.ReturnRecordResponse, error)
	UpdateFieldByEntryID(ctx context.Context, actor, entryID uuid.UUID, req koudenapp.UpdateFieldRequest) (*koudenapp.ReturnRecordResponse, error)
	UpdateFields(ctx context.Context, actor, recordID uuid.UUID, payload map[string]any) (*koudenapp.ReturnRecordResponse, error)
	UpdateItems(ctx context.Context, actor, recordID uuid.UUID, req koudenapp.UpdateItemsRequest) (*koudenapp.ReturnRecordResponse, error)
	BulkUpdate(ctx context.Context, actor, koudenID uuid.UUID, req koudenapp.BulkUpdateRequest) (*koudenapp.BulkUpdateResult, error)
	BuildSummaries(ctx context.Context, koudenID uuid.UUID) ([]koudenapp.SummaryResponse, error)
	GetAllForBulkEdit(ctx context.Context, koudenID uuid.UUID) ([]koudenapp.SummaryResponse, error)
	Statistics(ctx context.Context, koudenID uuid.UUID) (*koudenapp.StatisticsResponse, error)
	Page(ctx context.Context, koudenID uuid.UUID, q koudenapp.PageQuery) (*koudenapp.PageResponse, error)
}

// ReturnRecordHandler handles return record HTTP requests
type ReturnRecordHandler struct {
	BaseHandler
	service ReturnRecordService
}

// NewReturnRecordHandler creates a new ReturnRecordHandler
func NewReturnRecordHandler(service ReturnRecordService) *ReturnRecordHandler {
	return &ReturnRecordHandler{service: service}
}

// RegisterRoutes mounts the return record routes on rg
func (h *ReturnRecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/koudens/:kouden_id")
	ledger.POST("/return-records", h.Create)
	ledger.GET("/return-records", h.ListByLedger)
	ledger.GET("/return-records/page", h.Page)
	ledger.POST("/return-records/bulk-update", h.BulkUpdate)
	ledger.GET("/return-summaries", h.BuildSummaries)
	ledger.GET("/return-summaries/bulk-edit", h.GetAllForBulkEdit)
	ledger.GET("/return-statistics", h.Statistics)

	entries := rg.Group("/entries/:entry_id/return-record")
	entries.GET("", h.GetByEntryID)
	entries.DELETE("", h.DeleteByEntryID)
	entries.PATCH("/field", h.UpdateFieldByEntryID)

	// record ids may span ledgers, so batch delete is not nested under one
	rg.POST("/return-records/batch-delete", h.DeleteMany)

	records := rg.Group("/return-records/:id")
	records.PATCH("", h.UpdateFields)
	records.PATCH("/field", h.UpdateField)
	records.PUT("/items", h.UpdateItems)
}

// createReturnRecordBody names the entry alongside the initial fields
type createReturnRecordBody struct {
	KoudenEntryID uuid.UUID `json:"koudenEntryId" binding:"required"`
	koudenapp.CreateReturnRecordRequest
}

// Create godoc
// POST /koudens/:kouden_id/return-records
func (h *ReturnRecordHandler) Create(c *gin.Context) {
	koudenID, ok := h.pathUUID(c, "kouden_id")
	if !ok {
		return
	}
	var body createReturnRecordBody
	if !h.bindJSON(c, &body) {
		return
	}
	body.CreateReturnRecordRequest.KoudenID = koudenID

	resp, err := h.service.Create(c.Request.Context(), middleware.GetActorID(c), body.KoudenEntryID, body.CreateReturnRecordRequest)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListByLedger godoc
// GET /koudens/:kouden_id/return-records
func (h *ReturnRecordHandler) ListByLedger(c *gin.Context) {
	koudenID, ok := h.pathUUID(c, "kouden_id")
	if !ok {
		return
	}
	records, err := h.service.ListByLedger(c.Request.Context(), koudenID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, dto.Meta{Count: len(records)})
}

// Page godoc
// GET /koudens/:kouden_id/return-records/page?limit=&cursor=&search=&status=
func (h *ReturnRecordHandler) Page(c *gin.Context) {
	koudenID, ok := h.pathUUID(c, "kouden_id")
	if !ok {
		return
	}
	var q koudenapp.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		if details := middleware.ValidationDetails(err); details != nil {
			h.ValidationError(c, details)
		} else {
			h.BadRequest(c, "Invalid query parameters")
		}
		return
	}

	page, err := h.service.Page(c.Request.Context(), koudenID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	hasMore := page.HasMore
	h.SuccessWithMeta(c, page.Data, dto.Meta{
		Count:      len(page.Data),
		HasMore:    &hasMore,
		NextCursor: page.NextCursor,
	})
}

// BulkUpdate godoc
// POST /koudens/:kouden_id/return-records/bulk-update
func (h *ReturnRecordHandler) BulkUpdate(c *gin.Context) {
	koudenID, ok := h.pathUUID(c, "kouden_id")
	if !ok {
		return
	}
	var req koudenapp.BulkUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.service.BulkUpdate(c.Request.Context(), middleware.GetActorID(c), koudenID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DeleteMany godoc
// POST /return-records/batch-delete
func (h *ReturnRecordHandler) DeleteMany(c *gin.Context) {
	var req koudenapp.DeleteManyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.service.DeleteMany(c.Request.Context(), middleware.GetActorID(c), req.RecordIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BuildSummaries godoc
// GET /koudens/:kouden_id/return-summaries
func (h *ReturnRecordHandler) BuildSummaries(c *gin.Context) {
	h.summaries(c, h.service.BuildSummaries)
}

// GetAllForBulkEdit godoc
// GET /koudens/:kouden_id/return-summaries/bulk-edit
func (h *ReturnRecordHandler) GetAllForBulkEdit(c *gin.Context) {
	h.summaries(c, h.service.GetAllForBulkEdit)
}

func (h *ReturnRecordHandler) summaries(c *gin.Context, load func(context.Context, uuid.UUID) ([]koudenapp.SummaryResponse, error)) {
	koudenID, ok := h.pathUUID(c, "kouden_id")
	if !ok {
		return
	}
	summaries, err := load(c.Request.Context(), koudenID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, summaries, dto.Meta{Count: len(summaries)})
}

// Statistics godoc
// GET /koudens/:kouden_id/return-statistics
func (h *ReturnRecordHandler) Statistics(c *gin.Context) {
	koudenID, ok := h.pathUUID(c, "kouden_id")
	if !ok {
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), koudenID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// GetByEntryID godoc
// GET /entries/:entry_id/return-record
// An entry without a record answers 200 with null data.
func (h *ReturnRecordHandler) GetByEntryID(c *gin.Context) {
	entryID, ok := h.pathUUID(c, "entry_id")
	if !ok {
		return
	}
	record, err := h.service.GetByEntryID(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// DeleteByEntryID godoc
// DELETE /entries/:entry_id/return-record
func (h *ReturnRecordHandler) DeleteByEntryID(c *gin.Context) {
	entryID, ok := h.pathUUID(c, "entry_id")
	if !ok {
		return
	}
	result, err := h.service.DeleteByEntryID(c.Request.Context(), middleware.GetActorID(c), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateFieldByEntryID godoc
// PATCH /entries/:entry_id/return-record/field
func (h *ReturnRecordHandler) UpdateFieldByEntryID(c *gin.Context) {
	entryID, ok := h.pathUUID(c, "entry_id")
	if !ok {
		return
	}
	var req koudenapp.UpdateFieldRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateFieldByEntryID(c.Request.Context(), middleware.GetActorID(c), entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateField godoc
// PATCH /return-records/:id/field
func (h *ReturnRecordHandler) UpdateField(c *gin.Context) {
	recordID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req koudenapp.UpdateFieldRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateField(c.Request.Context(), middleware.GetActorID(c), recordID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateFields godoc
// PATCH /return-records/:id
// The body is a flat object of field name to value.
func (h *ReturnRecordHandler) UpdateFields(c *gin.Context) {
	recordID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Malformed request body")
		return
	}
	resp, err := h.service.UpdateFields(c.Request.Context(), middleware.GetActorID(c), recordID, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItems godoc
// PUT /return-records/:id/items
func (h *ReturnRecordHandler) UpdateItems(c *gin.Context) {
	recordID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req koudenapp.UpdateItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateItems(c.Request.Context(), middleware.GetActorID(c), recordID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
