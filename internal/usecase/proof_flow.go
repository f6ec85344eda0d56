package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"kainan-backend/internal/domain"
	"kainan-backend/pkg/logger"
	"kainan-backend/pkg/storage"
	"kainan-backend/pkg/utils"
)

// ProofFlowState is the lifecycle of one proof-of-delivery submission.
type ProofFlowState string

const (
	ProofIdle      ProofFlowState = "idle"
	ProofReceiving ProofFlowState = "receiving"
	ProofUploading ProofFlowState = "uploading"
	ProofSucceeded ProofFlowState = "succeeded"
	ProofFailed    ProofFlowState = "failed"
)

// ProofFlow coordinates receiving a proof photo, normalizing it, uploading
// it to object storage and committing the resulting URL to the order.
//
// At most one flow may be active per order; a second submission while one is
// in flight is rejected rather than queued. Caller cancellation is honored
// only while the image is being received and processed — once the upload
// starts, the transfer and the order mutation run to completion (success or
// failure), so a dropped connection cannot leave a stored object without an
// order pointing at it.
type ProofFlow struct {
	storage storage.ObjectStorage

	mu     sync.Mutex
	active map[string]ProofFlowState // orderID -> state of the in-flight flow
}

func NewProofFlow(store storage.ObjectStorage) *ProofFlow {
	return &ProofFlow{
		storage: store,
		active:  make(map[string]ProofFlowState),
	}
}

// StateOf reports the current flow state for an order; ProofIdle when
// nothing is in flight.
func (f *ProofFlow) StateOf(orderID string) ProofFlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.active[orderID]; ok {
		return s
	}
	return ProofIdle
}

func (f *ProofFlow) begin(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, inFlight := f.active[orderID]; inFlight {
		return domain.ErrUploadInFlight
	}
	f.active[orderID] = ProofReceiving
	return nil
}

func (f *ProofFlow) transition(orderID string, s ProofFlowState) {
	f.mu.Lock()
	f.active[orderID] = s
	f.mu.Unlock()
}

func (f *ProofFlow) finish(orderID string) {
	f.mu.Lock()
	delete(f.active, orderID)
	f.mu.Unlock()
}

// Run executes one submission: process the image, upload it, then hand the
// public URL to commit (which attaches it to the order or marks the order
// delivered). Returns the stored URL.
//
// The terminal state always resets to idle via defer, so no failure path can
// leave the order's flow stuck in flight.
func (f *ProofFlow) Run(ctx context.Context, orderID string, image io.Reader, filename string, commit func(ctx context.Context, url string) error) (string, error) {
	if err := f.begin(orderID); err != nil {
		return "", err
	}
	defer f.finish(orderID)

	// Receiving: normalize the photo. The caller can still cancel here —
	// a dropped request at this stage is a no-op, not a failure.
	data, contentType, err := utils.ProcessProofImage(image, filename)
	if err != nil {
		f.transition(orderID, ProofFailed)
		return "", fmt.Errorf("failed to process proof image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Uploading: past this point the flow is detached from the caller's
	// context and runs to completion.
	f.transition(orderID, ProofUploading)
	uploadCtx := context.WithoutCancel(ctx)

	url, err := f.storage.UploadBuffer(uploadCtx, "proofs/"+orderID, data, contentType)
	if err != nil {
		f.transition(orderID, ProofFailed)
		return "", fmt.Errorf("failed to upload proof: %w", err)
	}

	if err := commit(uploadCtx, url); err != nil {
		f.transition(orderID, ProofFailed)
		// The object is orphaned if we keep it; best-effort cleanup.
		if delErr := f.storage.DeleteFile(uploadCtx, url); delErr != nil {
			logger.Warn().Err(delErr).Str("order_id", orderID).Msg("failed to delete orphaned proof object")
		}
		return "", err
	}

	f.transition(orderID, ProofSucceeded)
	return url, nil
}
