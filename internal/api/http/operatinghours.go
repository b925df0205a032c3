package http

import (
	"net/http"
	"time"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/pkg/httpx"
)

type OperatingHoursHandler struct {
	OperatingHourService *service.OperatingHourService
}

type operatingHourResponse struct {
	ID        string    `json:"id"`
	Group     string    `json:"group"`
	Slot      int       `json:"slot"`
	Label     string    `json:"label"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toOperatingHourResponse(h domain.OperatingHour) operatingHourResponse {
	return operatingHourResponse{
		ID:        h.ID,
		Group:     string(h.Group),
		Slot:      h.Slot,
		Label:     h.Label,
		Visible:   h.Visible,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

func toOperatingHourResponses(items []domain.OperatingHour) []operatingHourResponse {
	out := make([]operatingHourResponse, len(items))
	for i, h := range items {
		out[i] = toOperatingHourResponse(h)
	}
	return out
}

func toGroupedResponse(grouped map[domain.Group][]domain.OperatingHour) map[string][]operatingHourResponse {
	out := make(map[string][]operatingHourResponse, len(grouped))
	for g, items := range grouped {
		out[string(g)] = toOperatingHourResponses(items)
	}
	return out
}

// HandleList returns every slot keyed by group.
func (h *OperatingHoursHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.OperatingHourService.ListGrouped(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "operating hours retrieved", toGroupedResponse(grouped))
}

// HandleListVisible returns only visible slots keyed by group.
func (h *OperatingHoursHandler) HandleListVisible(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.OperatingHourService.ListVisibleGrouped(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "operating hours retrieved", toGroupedResponse(grouped))
}

// HandleListByGroup returns one group's slots ordered by slot number.
func (h *OperatingHoursHandler) HandleListByGroup(w http.ResponseWriter, r *http.Request) {
	items, err := h.OperatingHourService.ListByGroup(r.Context(), domain.Group(r.PathValue("group")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "operating hours retrieved", toOperatingHourResponses(items))
}

// HandleGet returns a single slot.
func (h *OperatingHoursHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	hour, err := h.OperatingHourService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "operating hour retrieved", toOperatingHourResponse(hour))
}

type updateOperatingHourRequest struct {
	Label   *string `json:"label"`
	Visible *bool   `json:"visible"`
}

// HandleUpdate changes a slot's label and/or visibility.
func (h *OperatingHoursHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateOperatingHourRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hour, err := h.OperatingHourService.Update(r.Context(), r.PathValue("id"), service.UpdateOperatingHourParams{
		Label:   req.Label,
		Visible: req.Visible,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "operating hour updated", toOperatingHourResponse(hour))
}

// HandleToggleVisibility flips a slot between shown and hidden.
func (h *OperatingHoursHandler) HandleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	hour, err := h.OperatingHourService.ToggleVisibility(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "operating hour visibility toggled", toOperatingHourResponse(hour))
}

type bulkOperatingHourItem struct {
	ID      string  `json:"id"`
	Label   *string `json:"label"`
	Visible *bool   `json:"visible"`
}

type bulkOperatingHoursResponse struct {
	Updated []operatingHourResponse `json:"updated"`
	Errors  []bulkItemErrorResponse `json:"errors"`
}

// HandleBulkUpdate applies many label/visibility updates. The body is a bare
// JSON array of items; failures are reported per item.
func (h *OperatingHoursHandler) HandleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var body []bulkOperatingHourItem
	if !decodeJSON(w, r, &body) {
		return
	}

	items := make([]service.BulkOperatingHourItem, len(body))
	for i, item := range body {
		items[i] = service.BulkOperatingHourItem{ID: item.ID, Label: item.Label, Visible: item.Visible}
	}

	result, err := h.OperatingHourService.BulkUpdate(r.Context(), items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := bulkOperatingHoursResponse{
		Updated: toOperatingHourResponses(result.Updated),
		Errors:  make([]bulkItemErrorResponse, len(result.Errors)),
	}
	if resp.Updated == nil {
		resp.Updated = []operatingHourResponse{}
	}
	for i, e := range result.Errors {
		resp.Errors[i] = bulkItemErrorResponse{Index: e.Index, ID: e.ID, Error: e.Err.Error()}
	}

	httpx.WriteSuccess(w, http.StatusOK, "operating hours updated", resp)
}
