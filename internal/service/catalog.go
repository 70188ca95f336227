package service

import (
	"github.com/nutri-next/internal/models"
)

// VariantCatalog 商品可购组合读模型：仅包含启用且有库存的变体。
// 所有方法均为纯函数，不读写共享状态。
type VariantCatalog struct {
	product   *models.Product
	available []models.ProductVariant
}

// VariantSelection 选择结果：解析出的维度取值与变体
type VariantSelection struct {
	FlavorID *uint
	WeightID *uint
	Variant  *models.ProductVariant
}

// NewVariantCatalog 从商品及其变体构建目录
func NewVariantCatalog(product *models.Product) *VariantCatalog {
	catalog := &VariantCatalog{product: product}
	if product == nil {
		return catalog
	}
	for i := range product.Variants {
		v := product.Variants[i]
		if !v.IsActive || v.AvailableQuantity <= 0 {
			continue
		}
		catalog.available = append(catalog.available, v)
	}
	return catalog
}

// AvailableVariants 返回启用且有库存的变体列表
func (c *VariantCatalog) AvailableVariants() []models.ProductVariant {
	return c.available
}

// Purchasable 返回商品是否存在可购组合
func (c *VariantCatalog) Purchasable() bool {
	return len(c.available) > 0
}

// HasFlavorAxis 返回商品是否声明口味维度
func (c *VariantCatalog) HasFlavorAxis() bool {
	return c.product != nil && len(c.product.FlavorOptionIDs) > 0
}

// HasWeightAxis 返回商品是否声明重量维度
func (c *VariantCatalog) HasWeightAxis() bool {
	return c.product != nil && len(c.product.WeightOptionIDs) > 0
}

func matchAxis(value, want *uint) bool {
	if want == nil {
		return value == nil
	}
	return value != nil && *value == *want
}

// ResolveVariant 解析唯一匹配的可购变体；维度为空表示商品不含该维度。
// 组合不在可购集合内时返回 nil。
func (c *VariantCatalog) ResolveVariant(flavorID, weightID *uint) *models.ProductVariant {
	for i := range c.available {
		v := &c.available[i]
		if matchAxis(v.FlavorID, flavorID) && matchAxis(v.WeightID, weightID) {
			return v
		}
	}
	return nil
}

// orderedOptionIDs 按商品声明顺序排列选项集合，未声明的追加在尾部
func orderedOptionIDs(declared models.UintArray, present map[uint]bool, presentOrder []uint) []uint {
	result := make([]uint, 0, len(present))
	seen := make(map[uint]bool, len(present))
	for _, id := range declared {
		if present[id] && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	for _, id := range presentOrder {
		if present[id] && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	return result
}

// AvailableFlavorIDs 返回出现在可购组合中的全部口味（按声明顺序）
func (c *VariantCatalog) AvailableFlavorIDs() []uint {
	present := make(map[uint]bool)
	var order []uint
	for i := range c.available {
		if id := c.available[i].FlavorID; id != nil && !present[*id] {
			present[*id] = true
			order = append(order, *id)
		}
	}
	var declared models.UintArray
	if c.product != nil {
		declared = c.product.FlavorOptionIDs
	}
	return orderedOptionIDs(declared, present, order)
}

// AvailableWeightIDs 返回出现在可购组合中的全部重量（按声明顺序）
func (c *VariantCatalog) AvailableWeightIDs() []uint {
	present := make(map[uint]bool)
	var order []uint
	for i := range c.available {
		if id := c.available[i].WeightID; id != nil && !present[*id] {
			present[*id] = true
			order = append(order, *id)
		}
	}
	var declared models.UintArray
	if c.product != nil {
		declared = c.product.WeightOptionIDs
	}
	return orderedOptionIDs(declared, present, order)
}

// AvailableWeights 返回与指定口味共同构成可购组合的重量集合（按声明顺序）
func (c *VariantCatalog) AvailableWeights(flavorID uint) []uint {
	present := make(map[uint]bool)
	var order []uint
	for i := range c.available {
		v := &c.available[i]
		if !matchAxis(v.FlavorID, &flavorID) {
			continue
		}
		if v.WeightID != nil && !present[*v.WeightID] {
			present[*v.WeightID] = true
			order = append(order, *v.WeightID)
		}
	}
	var declared models.UintArray
	if c.product != nil {
		declared = c.product.WeightOptionIDs
	}
	return orderedOptionIDs(declared, present, order)
}

// AvailableFlavors 返回与指定重量共同构成可购组合的口味集合（按声明顺序）
func (c *VariantCatalog) AvailableFlavors(weightID uint) []uint {
	present := make(map[uint]bool)
	var order []uint
	for i := range c.available {
		v := &c.available[i]
		if !matchAxis(v.WeightID, &weightID) {
			continue
		}
		if v.FlavorID != nil && !present[*v.FlavorID] {
			present[*v.FlavorID] = true
			order = append(order, *v.FlavorID)
		}
	}
	var declared models.UintArray
	if c.product != nil {
		declared = c.product.FlavorOptionIDs
	}
	return orderedOptionIDs(declared, present, order)
}

// SelectFlavor 切换口味：当前重量仍兼容则保持不变，
// 否则按声明顺序回退到第一个兼容重量；无兼容组合时变体为空。
func (c *VariantCatalog) SelectFlavor(flavorID uint, currentWeightID *uint) VariantSelection {
	selection := VariantSelection{FlavorID: &flavorID}
	if !c.HasWeightAxis() {
		selection.Variant = c.ResolveVariant(&flavorID, nil)
		return selection
	}
	weights := c.AvailableWeights(flavorID)
	if currentWeightID != nil {
		for _, id := range weights {
			if id == *currentWeightID {
				w := id
				selection.WeightID = &w
				selection.Variant = c.ResolveVariant(&flavorID, &w)
				return selection
			}
		}
	}
	if len(weights) > 0 {
		w := weights[0]
		selection.WeightID = &w
		selection.Variant = c.ResolveVariant(&flavorID, &w)
	}
	return selection
}

// SelectWeight 切换重量：与 SelectFlavor 对称
func (c *VariantCatalog) SelectWeight(weightID uint, currentFlavorID *uint) VariantSelection {
	selection := VariantSelection{WeightID: &weightID}
	if !c.HasFlavorAxis() {
		selection.Variant = c.ResolveVariant(nil, &weightID)
		return selection
	}
	flavors := c.AvailableFlavors(weightID)
	if currentFlavorID != nil {
		for _, id := range flavors {
			if id == *currentFlavorID {
				f := id
				selection.FlavorID = &f
				selection.Variant = c.ResolveVariant(&f, &weightID)
				return selection
			}
		}
	}
	if len(flavors) > 0 {
		f := flavors[0]
		selection.FlavorID = &f
		selection.Variant = c.ResolveVariant(&f, &weightID)
	}
	return selection
}

// Combination 可购组合（派生数据，读取时重算）
type Combination struct {
	FlavorID *uint `json:"flavor_id,omitempty"`
	WeightID *uint `json:"weight_id,omitempty"`
	VariantID uint `json:"variant_id"`
}

// Combinations 返回全部可购组合
func (c *VariantCatalog) Combinations() []Combination {
	combinations := make([]Combination, 0, len(c.available))
	for i := range c.available {
		v := &c.available[i]
		combinations = append(combinations, Combination{
			FlavorID:  v.FlavorID,
			WeightID:  v.WeightID,
			VariantID: v.ID,
		})
	}
	return combinations
}
