package repository

import (
	"context"
	"testing"

	"campaignledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCatalogLookup(t *testing.T) {
	db := newTestDB(t, "catalog_lookup")
	catalog := NewItemCatalog(db, nil, 0)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Item{
		ItemName: "Healing Potion",
		Cost:     50,
		Rarity:   model.RarityCommon,
	}).Error)

	// 名称匹配不区分大小写
	for _, name := range []string{"Healing Potion", "healing potion", "HEALING POTION"} {
		item, err := catalog.Lookup(ctx, name)
		require.NoError(t, err, "name=%q", name)
		assert.Equal(t, "Healing Potion", item.ItemName) // 返回目录里的规范名称
		assert.Equal(t, int64(50), item.Cost)
	}

	_, err := catalog.Lookup(ctx, "Vorpal Sword")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemCatalogList(t *testing.T) {
	db := newTestDB(t, "catalog_list")
	catalog := NewItemCatalog(db, nil, 0)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Item{ItemName: "Rope", Cost: 1, Rarity: model.RarityCommon}).Error)
	require.NoError(t, db.Create(&model.Item{ItemName: "Bag of Holding", Cost: 4000, Rarity: model.RarityUncommon}).Error)

	items, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// 按名称排序
	assert.Equal(t, "Bag of Holding", items[0].ItemName)
	assert.Equal(t, "Rope", items[1].ItemName)
}
