package v1

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/usecase"
	"kainan-backend/pkg/logger"
	"kainan-backend/pkg/utils"
)

// RiderHandler serves the delivery app: the available-order pool, claims,
// pickup, COD collection, proof upload and delivery confirmation.
type RiderHandler struct {
	riderUC       *usecase.RiderUsecase
	proofFlow     *usecase.ProofFlow
	maxUploadSize int64
}

func NewRiderHandler(riderUC *usecase.RiderUsecase, proofFlow *usecase.ProofFlow, maxUploadSizeMB int64) *RiderHandler {
	return &RiderHandler{
		riderUC:       riderUC,
		proofFlow:     proofFlow,
		maxUploadSize: maxUploadSizeMB * 1024 * 1024,
	}
}

func (h *RiderHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	orders, err := h.riderUC.GetAvailableOrders(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: orders})
}

func (h *RiderHandler) ClaimOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	orderID := r.PathValue("id")
	assignment, err := h.riderUC.ClaimOrder(r.Context(), orderID, user.ID)
	if err != nil {
		if err == domain.ErrAlreadyAssigned || err == domain.ErrOrderNotFound {
			writeDomainError(w, err)
			return
		}
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, domain.Response{Success: true, Data: assignment})
}

func (h *RiderHandler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.riderUC.MarkPickedUp(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: order})
}

func (h *RiderHandler) VerifyCODPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.riderUC.VerifyCODPayment(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: order})
}

// UploadProof receives a multipart photo, runs it through the proof flow
// (normalize, upload, attach) and returns the refreshed order. A second
// submission while one is in flight gets a 409.
func (h *RiderHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Proof image file is required")
		return
	}
	defer file.Close()

	if !utils.IsImage(header.Header.Get("Content-Type")) {
		utils.WriteError(w, http.StatusBadRequest, "Only image files are accepted")
		return
	}

	var order *domain.Order
	url, err := h.proofFlow.Run(r.Context(), orderID, file, header.Filename, func(ctx context.Context, url string) error {
		var commitErr error
		order, commitErr = h.riderUC.AttachProof(ctx, orderID, user.ID, url)
		return commitErr
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.WithContext(r.Context()).Info().Str("order_id", orderID).Str("url", url).Msg("proof uploaded")
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: order})
}

// MarkDelivered completes the delivery. The proof photo may ride along in
// the same multipart request; without one, a previously attached proof is
// reused.
func (h *RiderHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID := r.PathValue("id")

	var order *domain.Order
	var err error

	if file, header, hasFile := h.deliveryProofFile(w, r); hasFile {
		defer file.Close()
		if !utils.IsImage(header.Header.Get("Content-Type")) {
			utils.WriteError(w, http.StatusBadRequest, "Only image files are accepted")
			return
		}
		_, err = h.proofFlow.Run(r.Context(), orderID, file, header.Filename, func(ctx context.Context, url string) error {
			var commitErr error
			order, commitErr = h.riderUC.MarkDelivered(ctx, orderID, user.ID, url)
			return commitErr
		})
	} else {
		order, err = h.riderUC.MarkDelivered(r.Context(), orderID, user.ID, "")
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: order})
}

// deliveryProofFile extracts the optional "proof" part from a multipart
// delivered request. A non-multipart or proof-less request is not an error;
// MarkDelivered then falls back to any previously attached proof.
func (h *RiderHandler) deliveryProofFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, nil, false
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		return nil, nil, false
	}
	return file, header, true
}
