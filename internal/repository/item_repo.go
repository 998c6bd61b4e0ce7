package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"campaignledger/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var ErrItemNotFound = errors.New("物品不存在")

// ItemCatalog 物品目录（只读）
//
// 价格很少变，走一层 Redis 读穿缓存就够了，缓存过期即失效，
// 不做主动失效。名称匹配不区分大小写，唯一性由目录数据自己保证。
type ItemCatalog struct {
	db       *gorm.DB
	rdb      *redis.Client // 可以为 nil（测试或未配置缓存时直查库）
	cacheTTL time.Duration
}

func NewItemCatalog(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration) *ItemCatalog {
	return &ItemCatalog{db: db, rdb: rdb, cacheTTL: cacheTTL}
}

func itemCacheKey(name string) string {
	return "catalog:item:" + strings.ToLower(name)
}

// Lookup 按名称查物品，查不到返回 ErrItemNotFound
func (c *ItemCatalog) Lookup(ctx context.Context, itemName string) (*model.Item, error) {
	key := itemCacheKey(itemName)

	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			var item model.Item
			if jsonErr := json.Unmarshal([]byte(cached), &item); jsonErr == nil {
				return &item, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			// 缓存故障不影响查询，降级直查库
			log.Printf("[ItemCatalog] 读缓存失败: %v", err)
		}
	}

	var item model.Item
	err := c.db.WithContext(ctx).
		Where("LOWER(item_name) = ?", strings.ToLower(itemName)).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemName)
		}
		return nil, storeErr(err)
	}

	if c.rdb != nil {
		if payload, jsonErr := json.Marshal(&item); jsonErr == nil {
			if err := c.rdb.Set(ctx, key, payload, c.cacheTTL).Err(); err != nil {
				log.Printf("[ItemCatalog] 写缓存失败: %v", err)
			}
		}
	}

	return &item, nil
}

// List 全量物品清单（给前端展示目录用）
func (c *ItemCatalog) List(ctx context.Context) ([]*model.Item, error) {
	var items []*model.Item
	err := c.db.WithContext(ctx).Order("item_name ASC").Find(&items).Error
	return items, storeErr(err)
}
