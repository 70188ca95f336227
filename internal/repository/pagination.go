package repository

import "gorm.io/gorm"

// applyPagination 给查询追加 limit/offset。pageSize 非正数表示不分页，
// 非法页码回退到第一页。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
