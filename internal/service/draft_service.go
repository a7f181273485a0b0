package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"grocery-service/internal/models"
	"grocery-service/internal/store"
	"grocery-service/internal/util"

	"go.uber.org/zap"
)

// draftPhotoSkip lets the operator finish a draft without a photo.
const draftPhotoSkip = "skip"

// DraftService runs the operator's product-creation conversation: a
// persisted per-user draft advanced one validated field at a time
// (name, category, quantity, price, photo). Completing the draft creates
// the product, or merges quantity into an existing one with the same name
// and category (the restock path).
type DraftService struct {
	drafts  DraftStore
	catalog CatalogStore
	logger  *zap.Logger
}

// NewDraftService creates a new draft service
func NewDraftService(drafts DraftStore, catalog CatalogStore) *DraftService {
	return &DraftService{
		drafts:  drafts,
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

// Start begins a fresh draft for the user, discarding any prior one.
func (s *DraftService) Start(ctx context.Context, userID int64) (*models.ProductDraft, error) {
	draft := &models.ProductDraft{
		UserID: userID,
		Step:   models.DraftStepName,
	}
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to start draft: %w", err)
	}
	return draft, nil
}

// StartFromProduct begins a draft prefilled from an existing product, so
// the operator only supplies quantity and price. This is the restock path.
func (s *DraftService) StartFromProduct(ctx context.Context, userID, productID int64) (*models.ProductDraft, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	draft := &models.ProductDraft{
		UserID:   userID,
		Step:     models.DraftStepQuantity,
		Name:     product.Name,
		Category: product.Category,
	}
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to start draft: %w", err)
	}
	return draft, nil
}

// Advance feeds one input value into the user's draft. It validates the
// value against the current step and either saves the advanced draft or,
// on the final step, creates the product and deletes the draft. The
// returned product is non-nil only when the draft completed.
func (s *DraftService) Advance(ctx context.Context, userID int64, value string) (*models.ProductDraft, *models.Product, error) {
	draft, err := s.drafts.GetDraft(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("no draft in progress: %w", store.ErrNotFound)
		}
		return nil, nil, err
	}

	value = strings.TrimSpace(value)

	switch draft.Step {
	case models.DraftStepName:
		if value == "" {
			return nil, nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		draft.Name = value
		draft.Step = models.DraftStepCategory

	case models.DraftStepCategory:
		if !models.ValidCategory(value) {
			return nil, nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, value)
		}
		draft.Category = value
		draft.Step = models.DraftStepQuantity

	case models.DraftStepQuantity:
		quantity, err := strconv.Atoi(value)
		if err != nil || quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
		}
		draft.Quantity = quantity
		draft.Step = models.DraftStepPrice

	case models.DraftStepPrice:
		price, err := strconv.ParseInt(value, 10, 64)
		if err != nil || price <= 0 {
			return nil, nil, fmt.Errorf("%w: price must be a positive integer", ErrInvalidInput)
		}
		draft.Price = price
		draft.Step = models.DraftStepPhoto

	case models.DraftStepPhoto:
		if !strings.EqualFold(value, draftPhotoSkip) {
			draft.PhotoID = value
		}
		return s.complete(ctx, draft)

	default:
		return nil, nil, fmt.Errorf("%w: draft in unknown step %q", ErrInvalidInput, draft.Step)
	}

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil, nil
}

// Cancel discards the user's draft if one exists.
func (s *DraftService) Cancel(ctx context.Context, userID int64) error {
	return s.drafts.DeleteDraft(ctx, userID)
}

func (s *DraftService) complete(ctx context.Context, draft *models.ProductDraft) (*models.ProductDraft, *models.Product, error) {
	product, err := s.catalog.UpsertProduct(ctx,
		draft.Name, draft.Category, draft.Quantity, draft.Price, draft.PhotoID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := s.drafts.DeleteDraft(ctx, draft.UserID); err != nil {
		s.logger.Warn("Failed to delete completed draft",
			zap.Int64("user_id", draft.UserID),
			zap.Error(err))
	}

	s.logger.Info("Product created from draft",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("quantity", draft.Quantity))

	return draft, product, nil
}
