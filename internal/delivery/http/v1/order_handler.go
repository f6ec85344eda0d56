package v1

import (
	"net/http"

	"github.com/goccy/go-json"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/usecase"
	"kainan-backend/pkg/logger"
	"kainan-backend/pkg/utils"
)

// OrderHandler serves the customer-facing order surface: checkout, the
// tabbed order list and the single-order view.
type OrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{orderUC: uc}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req usecase.CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderUC.Checkout(r.Context(), user.ID, req)
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("user_id", user.ID).Msg("checkout failed")
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusCreated, domain.Response{Success: true, Data: order})
}

// ListMyOrders returns the caller's orders for one tab, plus the per-tab
// counts the client renders on the tab bar. ?tab= empty or "all" means no
// status filter.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	tab := q.Get("tab")
	page := utils.ParseInt(q.Get("page"), 1)
	limit := utils.ParseInt(q.Get("limit"), 20)

	orders, tabCounts, total, err := h.orderUC.GetOrdersByTab(r.Context(), user, tab, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data: map[string]interface{}{
			"orders":    orders,
			"tabs":      domain.TabKeys(user.Role),
			"tabCounts": tabCounts,
		},
		Meta: pagination(page, limit, total),
	})
}

// GetOrder returns the role-shaped view of one order: the record plus its
// presentation (status label, eligible actions, notice, display strings).
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	if orderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	view, err := h.orderUC.GetOrderView(r.Context(), orderID, user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: view})
}
