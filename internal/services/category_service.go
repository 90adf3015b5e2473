package services

import (
	"context"
	"sort"
	"strings"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	store ledger.Store
	opts  options
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(store ledger.Store, opts ...Option) CategoryServicer {
	return &categoryService{store: store, opts: newOptions(opts)}
}

// checkCategoryName rejects a name already used by another category of the
// same direction. The Transfer name is unique across both directions.
func checkCategoryName(cats []models.Category, excludeID, name string, isIncome bool) error {
	for _, c := range cats {
		if c.ID == excludeID || !strings.EqualFold(c.Name, name) {
			continue
		}
		if strings.EqualFold(name, models.TransferCategoryName) {
			return apperrors.ErrTransferCategoryProtected
		}
		if c.IsIncome == isIncome {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Category with this name already exists")
		}
	}
	return nil
}

// CreateCategory creates a new category.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name, iconID string, isIncome bool) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Category name is required")
	}

	category := models.Category{
		Name:     name,
		IconID:   iconID,
		IsIncome: isIncome,
	}
	category.PrepareCreate(s.opts.now())

	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		cats, err := treeList[models.Category](tree, ledger.Categories)
		if err != nil {
			return err
		}
		if err := checkCategoryName(cats, "", name, isIncome); err != nil {
			return err
		}
		return treePut(tree, ledger.Categories, category.ID, category)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &category, nil
}

// GetUserCategories lists the user's categories by name, optionally only
// one direction.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string, isIncome *bool) ([]models.Category, error) {
	cats, err := listRecords[models.Category](ctx, s.store, userID, ledger.Categories)
	if err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(cats))
	for _, c := range cats {
		if isIncome != nil && c.IsIncome != *isIncome {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsIncome != out[j].IsIncome {
			return out[i].IsIncome
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	return getRecord[models.Category](ctx, s.store, userID, ledger.Categories, categoryID, apperrors.ErrCategoryNotFound)
}

// UpdateCategory applies the non-empty fields to a category. The Transfer
// category cannot be renamed.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID, name, iconID string, isIncome *bool) (*models.Category, error) {
	name = strings.TrimSpace(name)

	var updated models.Category
	err := s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		category, err := treeGet[models.Category](tree, ledger.Categories, categoryID, apperrors.ErrCategoryNotFound)
		if err != nil {
			return err
		}
		if category.IsTransfer() && name != "" && name != category.Name {
			return apperrors.ErrTransferCategoryProtected
		}

		if name != "" {
			category.Name = name
		}
		if iconID != "" {
			category.IconID = iconID
		}
		if isIncome != nil {
			category.IsIncome = *isIncome
		}

		cats, err := treeList[models.Category](tree, ledger.Categories)
		if err != nil {
			return err
		}
		if err := checkCategoryName(cats, category.ID, category.Name, category.IsIncome); err != nil {
			return err
		}

		category.Touch(s.opts.now())
		updated = *category
		return treePut(tree, ledger.Categories, category.ID, category)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &updated, nil
}

// DeleteCategory deletes a category that no transaction references.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	return storeError(s.store.RunTransaction(ctx, userID, func(tree *ledger.Tree) error {
		category, err := treeGet[models.Category](tree, ledger.Categories, categoryID, apperrors.ErrCategoryNotFound)
		if err != nil {
			return err
		}
		if category.IsTransfer() {
			return apperrors.ErrTransferCategoryProtected
		}

		txs, err := treeList[models.Transaction](tree, ledger.Transactions)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.CategoryID == categoryID {
				return apperrors.ErrCategoryInUse
			}
		}

		tree.Delete(ledger.Categories, categoryID)
		return nil
	}))
}
