// Package catalog manages menu items and the categories that group them.
// Items reference categories by name; every write is validated against the
// known category set.
package catalog

import (
	"context"
	"strings"

	"github.com/paintcoffee/pos-backend/internal/app/domain/category"
	"github.com/paintcoffee/pos-backend/internal/app/domain/menu"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

// Service exposes catalog operations.
type Service struct {
	menus      storage.MenuStore
	categories storage.CategoryStore
	cache      *Cache
	log        *logger.Logger
}

// New creates a catalog service. cache may be nil, in which case menu listings
// always hit the store.
func New(menus storage.MenuStore, categories storage.CategoryStore, cache *Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{menus: menus, categories: categories, cache: cache, log: log}
}

// MenuItemInput carries the writable fields of a menu item.
type MenuItemInput struct {
	Name          string   `json:"name"`
	OriginalPrice float64  `json:"originalPrice"`
	Categories    []string `json:"categories"`
	Type          string   `json:"type"`
	IsPromo       bool     `json:"isPromo"`
	PromoPrice    *float64 `json:"promoPrice"`
	Badge         string   `json:"badge"`
	Image         string   `json:"image"`
	Description   string   `json:"description"`
	IsActive      *bool    `json:"isActive"`
}

func (in MenuItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if in.OriginalPrice <= 0 {
		return apperr.Validation("originalPrice must be positive")
	}
	if in.IsPromo {
		if in.PromoPrice == nil || *in.PromoPrice <= 0 {
			return apperr.Validation("promoPrice must be positive for a promo item")
		}
		if *in.PromoPrice >= in.OriginalPrice {
			return apperr.Validation("promoPrice must be below originalPrice")
		}
	}
	return nil
}

// resolveCategories verifies every referenced category name exists and
// returns the stored spelling of each, so items always carry the exact name
// the delete-block count compares against. The error names the unknown
// references and the valid set so the client can correct the request without
// a second round trip.
func (s *Service) resolveCategories(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	known, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	canonical := make(map[string]string, len(known))
	validNames := make([]string, 0, len(known))
	for _, cat := range known {
		canonical[strings.ToLower(cat.Name)] = cat.Name
		validNames = append(validNames, cat.Name)
	}

	resolved := make([]string, 0, len(names))
	var unknown []string
	for _, name := range names {
		stored, ok := canonical[strings.ToLower(name)]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		resolved = append(resolved, stored)
	}
	if len(unknown) > 0 {
		return nil, apperr.Validation("unknown categories: %s (valid: %s)",
			strings.Join(unknown, ", "), strings.Join(validNames, ", "))
	}
	return resolved, nil
}

// CreateMenuItem validates and stores a new menu item.
func (s *Service) CreateMenuItem(ctx context.Context, in MenuItemInput) (menu.Item, error) {
	if err := in.validate(); err != nil {
		return menu.Item{}, err
	}
	categories, err := s.resolveCategories(ctx, in.Categories)
	if err != nil {
		return menu.Item{}, err
	}

	item := menu.Item{
		Name:          strings.TrimSpace(in.Name),
		OriginalPrice: in.OriginalPrice,
		Categories:    categories,
		Type:          in.Type,
		IsPromo:       in.IsPromo,
		PromoPrice:    in.PromoPrice,
		Badge:         in.Badge,
		Image:         in.Image,
		Description:   in.Description,
		IsActive:      true,
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if !item.IsPromo {
		item.PromoPrice = nil
	}

	created, err := s.menus.CreateMenuItem(ctx, item)
	if err != nil {
		return menu.Item{}, err
	}
	s.invalidateMenu(ctx)
	s.log.WithField("item_id", created.ID).Infof("created menu item %q", created.Name)
	return created, nil
}

// UpdateMenuItem replaces the writable fields of an existing item.
func (s *Service) UpdateMenuItem(ctx context.Context, id string, in MenuItemInput) (menu.Item, error) {
	if err := in.validate(); err != nil {
		return menu.Item{}, err
	}
	categories, err := s.resolveCategories(ctx, in.Categories)
	if err != nil {
		return menu.Item{}, err
	}

	existing, err := s.menus.GetMenuItem(ctx, id)
	if err != nil {
		return menu.Item{}, err
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.OriginalPrice = in.OriginalPrice
	existing.Categories = categories
	existing.Type = in.Type
	existing.IsPromo = in.IsPromo
	existing.PromoPrice = in.PromoPrice
	existing.Badge = in.Badge
	existing.Image = in.Image
	existing.Description = in.Description
	if in.IsActive != nil {
		existing.IsActive = *in.IsActive
	}
	if !existing.IsPromo {
		existing.PromoPrice = nil
	}

	updated, err := s.menus.UpdateMenuItem(ctx, existing)
	if err != nil {
		return menu.Item{}, err
	}
	s.invalidateMenu(ctx)
	return updated, nil
}

// GetMenuItem returns a single item by record id.
func (s *Service) GetMenuItem(ctx context.Context, id string) (menu.Item, error) {
	return s.menus.GetMenuItem(ctx, id)
}

// GetActiveMenuItem returns a single item for the public surface. Inactive
// items are indistinguishable from absent ones.
func (s *Service) GetActiveMenuItem(ctx context.Context, id string) (menu.Item, error) {
	item, err := s.menus.GetMenuItem(ctx, id)
	if err != nil {
		return menu.Item{}, err
	}
	if !item.IsActive {
		return menu.Item{}, apperr.NotFound("menu item %s not found", id)
	}
	return item, nil
}

// ListMenuByCategory returns the active items carrying the given category
// name, matched ignoring case.
func (s *Service) ListMenuByCategory(ctx context.Context, name string) ([]menu.Item, error) {
	items, err := s.ListMenu(ctx, true)
	if err != nil {
		return nil, err
	}

	matched := make([]menu.Item, 0, len(items))
	for _, item := range items {
		for _, c := range item.Categories {
			if strings.EqualFold(c, name) {
				matched = append(matched, item)
				break
			}
		}
	}
	return matched, nil
}

// ListMenu returns menu items, optionally restricted to active ones. The
// active listing is the hot path for terminals and is served from the cache
// when one is configured.
func (s *Service) ListMenu(ctx context.Context, activeOnly bool) ([]menu.Item, error) {
	if activeOnly && s.cache != nil {
		if items, ok := s.cache.GetMenu(ctx); ok {
			return items, nil
		}
	}

	items, err := s.menus.ListMenuItems(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if activeOnly && s.cache != nil {
		s.cache.SetMenu(ctx, items)
	}
	return items, nil
}

// DeleteMenuItem removes an item permanently.
func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	if err := s.menus.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	s.invalidateMenu(ctx)
	s.log.WithField("item_id", id).Info("deleted menu item")
	return nil
}

func (s *Service) invalidateMenu(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMenu(ctx); err != nil {
		s.log.WithError(err).Warn("failed to invalidate menu cache")
	}
}

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCategory stores a new category. Names are unique ignoring case.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (category.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return category.Category{}, apperr.Validation("name is required")
	}

	if existing, err := s.categories.GetCategoryByName(ctx, name); err == nil {
		return category.Category{}, apperr.Conflict("category %q already exists", existing.Name)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return category.Category{}, err
	}

	created, err := s.categories.CreateCategory(ctx, category.Category{
		Name:        name,
		Description: in.Description,
	})
	if err != nil {
		return category.Category{}, err
	}
	s.log.WithField("category_id", created.ID).Infof("created category %q", created.Name)
	return created, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]category.Category, error) {
	return s.categories.ListCategories(ctx)
}

// CategoryNames returns just the category names, for the public listing.
func (s *Service) CategoryNames(ctx context.Context) ([]string, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, cat.Name)
	}
	return names, nil
}

// DeleteCategory removes a category. A category still referenced by menu
// items cannot be deleted; the caller must reassign or remove those items
// first.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	cat, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.menus.CountMenuItemsInCategory(ctx, cat.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("category %q is used by %d menu item%s", cat.Name, count, plural(count))
	}

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.WithField("category_id", id).Infof("deleted category %q", cat.Name)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
