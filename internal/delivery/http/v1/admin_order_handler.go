package v1

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/usecase"
	"kainan-backend/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

// ListOrders supports both the tab view (?tab=) and raw filters
// (?status=a,b&paymentStatus=&search=). Tab wins when both are present.
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := utils.ParseInt(q.Get("page"), 1)
	limit := utils.ParseInt(q.Get("limit"), 20)

	filter := domain.OrderFilter{
		Page:          page,
		Limit:         limit,
		PaymentStatus: q.Get("paymentStatus"),
		Search:        q.Get("search"),
	}
	if tab := q.Get("tab"); tab != "" {
		filter.Statuses = domain.TabStatuses(domain.RoleAdmin, tab)
	} else if status := q.Get("status"); status != "" {
		filter.Statuses = strings.Split(status, ",")
	}

	orders, total, err := h.orderUC.GetAdminOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	byTab := map[string]int64{}
	if counts, err := h.orderUC.GetTabCounts(r.Context(), domain.RoleAdmin); err == nil {
		byTab = counts
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data: map[string]interface{}{
			"orders":    orders,
			"tabs":      domain.TabKeys(domain.RoleAdmin),
			"tabCounts": byTab,
		},
		Meta: pagination(page, limit, total),
	})
}

func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	view, err := h.orderUC.GetOrderView(r.Context(), orderID, user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: view})
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderUC.UpdateOrderStatus(r.Context(), orderID, req.Status, req.Note, user)
	if err != nil {
		if err == domain.ErrOrderNotFound {
			writeDomainError(w, err)
			return
		}
		// Transition violations are client errors, not server faults.
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: order})
}

func (h *AdminOrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	order, err := h.orderUC.VerifyPayment(r.Context(), orderID, user)
	if err != nil {
		if err == domain.ErrOrderNotFound {
			writeDomainError(w, err)
			return
		}
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: order})
}

func (h *AdminOrderHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	history, err := h.orderUC.GetOrderHistory(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: history})
}
