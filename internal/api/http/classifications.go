package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/pkg/httpx"
)

type ClassificationsHandler struct {
	ClassificationService *service.ClassificationService
}

type classificationResponse struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	DriverName string    `json:"driverName"`
	Points     float64   `json:"points"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toClassificationResponse(c domain.Classification) classificationResponse {
	return classificationResponse{
		ID:         c.ID,
		Category:   string(c.Category),
		DriverName: c.DriverName,
		Points:     c.Points,
		Position:   c.Position,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toClassificationResponses(items []domain.Classification) []classificationResponse {
	out := make([]classificationResponse, len(items))
	for i, c := range items {
		out[i] = toClassificationResponse(c)
	}
	return out
}

// HandleList returns a filtered page of classifications.
// Query params: category, driverName, minPoints, maxPoints, page, limit.
func (h *ClassificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := store.ClassificationFilter{
		Category:   domain.Category(q.Get("category")),
		DriverName: q.Get("driverName"),
	}
	if raw := q.Get("minPoints"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "minPoints must be a number")
			return
		}
		f.MinPoints = &v
	}
	if raw := q.Get("maxPoints"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "maxPoints must be a number")
			return
		}
		f.MaxPoints = &v
	}
	page, limit := pageParams(r)

	items, total, err := h.ClassificationService.List(r.Context(), f, page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WritePage(w, http.StatusOK, "classifications retrieved",
		toClassificationResponses(items), newPagination(page, limit, total))
}

// HandleLeaderboard returns standings for every category, empty ones included.
func (h *ClassificationsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.ClassificationService.Leaderboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	data := make(map[string][]classificationResponse, len(board))
	for cat, items := range board {
		data[string(cat)] = toClassificationResponses(items)
	}
	httpx.WriteSuccess(w, http.StatusOK, "leaderboard retrieved", data)
}

// HandleListByCategory returns one category's standings ordered by position.
func (h *ClassificationsHandler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	items, err := h.ClassificationService.ListByCategory(r.Context(), domain.Category(r.PathValue("category")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "classifications retrieved", toClassificationResponses(items))
}

// HandleGet returns a single classification.
func (h *ClassificationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.ClassificationService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "classification retrieved", toClassificationResponse(c))
}

type createClassificationRequest struct {
	Category   string  `json:"category"`
	DriverName string  `json:"driverName"`
	Points     float64 `json:"points"`
}

// HandleCreate inserts and ranks a new classification.
func (h *ClassificationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createClassificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.ClassificationService.Create(r.Context(), domain.Category(req.Category), req.DriverName, req.Points)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, "classification created", toClassificationResponse(c))
}

type updateClassificationRequest struct {
	Category   *string  `json:"category"`
	DriverName *string  `json:"driverName"`
	Points     *float64 `json:"points"`
}

// HandleUpdate applies a partial update and re-ranks.
func (h *ClassificationsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateClassificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := service.UpdateClassificationParams{
		DriverName: req.DriverName,
		Points:     req.Points,
	}
	if req.Category != nil {
		cat := domain.Category(*req.Category)
		p.Category = &cat
	}

	c, err := h.ClassificationService.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "classification updated", toClassificationResponse(c))
}

// HandleDelete removes a classification and closes its rank gap.
func (h *ClassificationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ClassificationService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "classification deleted", nil)
}

type bulkClassificationItem struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	DriverName string  `json:"driverName"`
	Points     float64 `json:"points"`
}

type bulkClassificationsRequest struct {
	Classifications []bulkClassificationItem `json:"classifications"`
}

type bulkItemErrorResponse struct {
	Index      int    `json:"index"`
	ID         string `json:"id,omitempty"`
	DriverName string `json:"driverName,omitempty"`
	Error      string `json:"error"`
}

type bulkClassificationResponse struct {
	Created []classificationResponse `json:"created"`
	Updated []classificationResponse `json:"updated"`
	Deleted []string                 `json:"deleted"`
	Errors  []bulkItemErrorResponse  `json:"errors"`
}

// HandleBulk reconciles the whole classification set against the payload.
// The body wraps the items in a classifications field.
func (h *ClassificationsHandler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkClassificationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]service.BulkItem, len(req.Classifications))
	for i, item := range req.Classifications {
		items[i] = service.BulkItem{
			ID:         item.ID,
			Category:   domain.Category(item.Category),
			DriverName: item.DriverName,
			Points:     item.Points,
		}
	}

	result, err := h.ClassificationService.ReplaceAll(r.Context(), items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := bulkClassificationResponse{
		Created: toClassificationResponses(result.Created),
		Updated: toClassificationResponses(result.Updated),
		Deleted: result.Deleted,
		Errors:  make([]bulkItemErrorResponse, len(result.Errors)),
	}
	if resp.Created == nil {
		resp.Created = []classificationResponse{}
	}
	if resp.Updated == nil {
		resp.Updated = []classificationResponse{}
	}
	if resp.Deleted == nil {
		resp.Deleted = []string{}
	}
	for i, e := range result.Errors {
		resp.Errors[i] = bulkItemErrorResponse{
			Index:      e.Index,
			ID:         e.ID,
			DriverName: e.DriverName,
			Error:      e.Err.Error(),
		}
	}

	httpx.WriteSuccess(w, http.StatusOK, "classifications reconciled", resp)
}
