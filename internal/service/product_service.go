package service

import (
	"context"
	"strings"
	"time"

	"github.com/nutri-next/internal/cache"
	"github.com/nutri-next/internal/logger"
	"github.com/nutri-next/internal/models"
	"github.com/nutri-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品目录服务
type ProductService struct {
	productRepo     repository.ProductRepository
	variantRepo     repository.VariantRepository
	flavorRepo      repository.FlavorRepository
	weightRepo      repository.WeightRepository
	cacheTTLSeconds int
}

// NewProductService 创建商品目录服务
func NewProductService(productRepo repository.ProductRepository, variantRepo repository.VariantRepository, flavorRepo repository.FlavorRepository, weightRepo repository.WeightRepository, cacheTTLSeconds int) *ProductService {
	return &ProductService{
		productRepo:     productRepo,
		variantRepo:     variantRepo,
		flavorRepo:      flavorRepo,
		weightRepo:      weightRepo,
		cacheTTLSeconds: cacheTTLSeconds,
	}
}

// ProductSummary 商品列表项
type ProductSummary struct {
	ID          uint               `json:"id"`
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Images      models.StringArray `json:"images"`
	Tags        models.StringArray `json:"tags"`
	PriceFrom   *models.Money      `json:"price_from,omitempty"`
	Purchasable bool               `json:"purchasable"`
	SortOrder   int                `json:"sort_order"`
	CreatedAt   time.Time          `json:"created_at"`
}

// VariantView 变体视图
type VariantView struct {
	ID                uint          `json:"id"`
	SKUCode           string        `json:"sku_code"`
	FlavorID          *uint         `json:"flavor_id,omitempty"`
	WeightID          *uint         `json:"weight_id,omitempty"`
	FlavorName        string        `json:"flavor_name,omitempty"`
	WeightLabel       string        `json:"weight_label,omitempty"`
	Price             models.Money  `json:"price"`
	SalePrice         *models.Money `json:"sale_price,omitempty"`
	EffectivePrice    models.Money  `json:"effective_price"`
	AvailableQuantity int           `json:"available_quantity"`
	InStock           bool          `json:"in_stock"`
	IsActive          bool          `json:"is_active"`
}

// ProductDetailView 商品详情读模型（含派生的可购组合）
type ProductDetailView struct {
	ID            uint               `json:"id"`
	Slug          string             `json:"slug"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Images        models.StringArray `json:"images"`
	Tags          models.StringArray `json:"tags"`
	NutritionJSON models.JSON        `json:"nutrition,omitempty"`
	Flavors       []models.Flavor    `json:"flavors"`
	Weights       []models.Weight    `json:"weights"`
	Variants      []VariantView      `json:"variants"`
	Combinations  []Combination      `json:"combinations"`
	Purchasable   bool               `json:"purchasable"`
}

// SelectionView 维度选择结果视图
type SelectionView struct {
	FlavorID           *uint        `json:"flavor_id,omitempty"`
	WeightID           *uint        `json:"weight_id,omitempty"`
	Variant            *VariantView `json:"variant,omitempty"`
	AvailableFlavorIDs []uint       `json:"available_flavor_ids"`
	AvailableWeightIDs []uint       `json:"available_weight_ids"`
}

func buildVariantView(v *models.ProductVariant) VariantView {
	view := VariantView{
		ID:                v.ID,
		SKUCode:           v.SKUCode,
		FlavorID:          v.FlavorID,
		WeightID:          v.WeightID,
		Price:             v.PriceAmount,
		SalePrice:         v.SalePriceAmount,
		EffectivePrice:    v.EffectivePrice(),
		AvailableQuantity: v.AvailableQuantity,
		InStock:           v.InStock(),
		IsActive:          v.IsActive,
	}
	if v.Flavor != nil {
		view.FlavorName = v.Flavor.Name
	}
	if v.Weight != nil {
		view.WeightLabel = v.Weight.Label
	}
	return view
}

// ListProducts 商品列表（含起售价）
func (s *ProductService) ListProducts(filter repository.ProductListFilter) ([]ProductSummary, int64, error) {
	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]ProductSummary, 0, len(products))
	for i := range products {
		product := &products[i]
		catalog := NewVariantCatalog(product)
		summary := ProductSummary{
			ID:          product.ID,
			Slug:        product.Slug,
			Name:        product.Name,
			Images:      product.Images,
			Tags:        product.Tags,
			Purchasable: catalog.Purchasable(),
			SortOrder:   product.SortOrder,
			CreatedAt:   product.CreatedAt,
		}
		if priceFrom := minEffectivePrice(catalog.AvailableVariants()); priceFrom != nil {
			summary.PriceFrom = priceFrom
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func minEffectivePrice(variants []models.ProductVariant) *models.Money {
	var min *decimal.Decimal
	for i := range variants {
		price := variants[i].EffectivePrice().Decimal
		if min == nil || price.LessThan(*min) {
			min = &price
		}
	}
	if min == nil {
		return nil
	}
	money := models.NewMoneyFromDecimal(*min)
	return &money
}

// GetProductDetail 商品详情（带 Redis TTL 缓存）
func (s *ProductService) GetProductDetail(ctx context.Context, slug string) (*ProductDetailView, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}

	var cached ProductDetailView
	hit, err := cache.GetProductDetail(ctx, slug, &cached)
	if err != nil {
		logger.Warnw("product_detail_cache_read_failed", "slug", slug, "error", err)
	}
	if hit {
		return &cached, nil
	}

	detail, err := s.buildProductDetail(slug)
	if err != nil {
		return nil, err
	}

	if err := cache.SetProductDetail(ctx, slug, detail, s.cacheTTLSeconds); err != nil {
		logger.Warnw("product_detail_cache_write_failed", "slug", slug, "error", err)
	}
	return detail, nil
}

func (s *ProductService) buildProductDetail(slug string) (*ProductDetailView, error) {
	product, err := s.productRepo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	catalog := NewVariantCatalog(product)
	flavors, err := s.orderedFlavors(catalog.AvailableFlavorIDs())
	if err != nil {
		return nil, err
	}
	weights, err := s.orderedWeights(catalog.AvailableWeightIDs())
	if err != nil {
		return nil, err
	}

	variants := make([]VariantView, 0, len(product.Variants))
	for i := range product.Variants {
		variants = append(variants, buildVariantView(&product.Variants[i]))
	}

	return &ProductDetailView{
		ID:            product.ID,
		Slug:          product.Slug,
		Name:          product.Name,
		Description:   product.Description,
		Images:        product.Images,
		Tags:          product.Tags,
		NutritionJSON: product.NutritionJSON,
		Flavors:       flavors,
		Weights:       weights,
		Variants:      variants,
		Combinations:  catalog.Combinations(),
		Purchasable:   catalog.Purchasable(),
	}, nil
}

func (s *ProductService) orderedFlavors(ids []uint) ([]models.Flavor, error) {
	flavors, err := s.flavorRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Flavor, len(flavors))
	for _, f := range flavors {
		byID[f.ID] = f
	}
	ordered := make([]models.Flavor, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

func (s *ProductService) orderedWeights(ids []uint) ([]models.Weight, error) {
	weights, err := s.weightRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Weight, len(weights))
	for _, w := range weights {
		byID[w.ID] = w
	}
	ordered := make([]models.Weight, 0, len(ids))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			ordered = append(ordered, w)
		}
	}
	return ordered, nil
}

// ListVariantsByProduct 变体列表（仅启用变体）
func (s *ProductService) ListVariantsByProduct(productID uint) ([]VariantView, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	variants, err := s.variantRepo.ListByProduct(productID, true)
	if err != nil {
		return nil, err
	}
	views := make([]VariantView, 0, len(variants))
	for i := range variants {
		views = append(views, buildVariantView(&variants[i]))
	}
	return views, nil
}

// ResolveSelection 解析维度选择。
// 两个维度都给定时做精确解析，解析失败按切换口味的回退规则处理；
// 只给定一个维度时执行该维度的切换；都未给定时返回第一个可购组合。
func (s *ProductService) ResolveSelection(slug string, flavorID, weightID *uint) (*SelectionView, error) {
	product, err := s.productRepo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	catalog := NewVariantCatalog(product)

	var selection VariantSelection
	switch {
	case flavorID != nil && weightID != nil:
		if v := catalog.ResolveVariant(flavorID, weightID); v != nil {
			selection = VariantSelection{FlavorID: flavorID, WeightID: weightID, Variant: v}
		} else {
			selection = catalog.SelectFlavor(*flavorID, weightID)
		}
	case flavorID != nil:
		selection = catalog.SelectFlavor(*flavorID, nil)
	case weightID != nil:
		selection = catalog.SelectWeight(*weightID, nil)
	default:
		selection = defaultSelection(catalog)
	}

	view := &SelectionView{
		FlavorID:           selection.FlavorID,
		WeightID:           selection.WeightID,
		AvailableFlavorIDs: catalog.AvailableFlavorIDs(),
		AvailableWeightIDs: catalog.AvailableWeightIDs(),
	}
	if selection.FlavorID != nil && catalog.HasWeightAxis() {
		view.AvailableWeightIDs = catalog.AvailableWeights(*selection.FlavorID)
	}
	if selection.WeightID != nil && catalog.HasFlavorAxis() {
		view.AvailableFlavorIDs = catalog.AvailableFlavors(*selection.WeightID)
	}
	if selection.Variant != nil {
		v := buildVariantView(selection.Variant)
		view.Variant = &v
	}
	return view, nil
}

func defaultSelection(catalog *VariantCatalog) VariantSelection {
	combinations := catalog.Combinations()
	if len(combinations) == 0 {
		return VariantSelection{}
	}
	first := combinations[0]
	return VariantSelection{
		FlavorID: first.FlavorID,
		WeightID: first.WeightID,
		Variant:  catalog.ResolveVariant(first.FlavorID, first.WeightID),
	}
}

// InvalidateProductDetail 商品或变体变更后清理详情缓存
func (s *ProductService) InvalidateProductDetail(ctx context.Context, slug string) {
	if err := cache.DelProductDetail(ctx, slug); err != nil {
		logger.Warnw("product_detail_cache_invalidate_failed", "slug", slug, "error", err)
	}
}

// ListFlavors 口味字典
func (s *ProductService) ListFlavors() ([]models.Flavor, error) {
	return s.flavorRepo.List()
}

// ListWeights 重量字典
func (s *ProductService) ListWeights() ([]models.Weight, error) {
	return s.weightRepo.List()
}

// DeleteFlavor 删除口味选项（存在引用变体时拒绝）
func (s *ProductService) DeleteFlavor(id uint) error {
	count, err := s.variantRepo.CountByOption(&id, nil)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrOptionInUse
	}
	return s.flavorRepo.Delete(id)
}

// DeleteWeight 删除重量选项（存在引用变体时拒绝）
func (s *ProductService) DeleteWeight(id uint) error {
	count, err := s.variantRepo.CountByOption(nil, &id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrOptionInUse
	}
	return s.weightRepo.Delete(id)
}
