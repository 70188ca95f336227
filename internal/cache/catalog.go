package cache

import (
	"context"
	"fmt"
	"time"
)

func productDetailKey(slug string) string {
	return fmt.Sprintf("catalog:product:%s", slug)
}

// GetProductDetail 读取商品详情缓存
func GetProductDetail(ctx context.Context, slug string, dest interface{}) (bool, error) {
	if slug == "" {
		return false, nil
	}
	return GetJSON(ctx, productDetailKey(slug), dest)
}

// SetProductDetail 写入商品详情缓存
func SetProductDetail(ctx context.Context, slug string, value interface{}, ttlSeconds int) error {
	if slug == "" || ttlSeconds <= 0 {
		return nil
	}
	return SetJSON(ctx, productDetailKey(slug), value, secondsToDuration(ttlSeconds))
}

// DelProductDetail 删除商品详情缓存（商品或变体变更后失效）
func DelProductDetail(ctx context.Context, slug string) error {
	if slug == "" {
		return nil
	}
	return Del(ctx, productDetailKey(slug))
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
