package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"campaignledger/internal/guard"
	"campaignledger/internal/model"
	"campaignledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase(t *testing.T) {
	db := newTestDB(t, "purchase")
	svc := NewMarketService(db, nil, guard.NewLocalGuard(), testConfig())
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100, 0, 1)
	seedItem(t, db, "Healing Potion", 30, model.RarityCommon)

	t.Run("扣款并记流水", func(t *testing.T) {
		entry, err := svc.Purchase(ctx, &PurchaseRequest{
			CharacterID: "CHR001",
			ItemName:    "Healing Potion",
			Quantity:    2,
			Notes:       "开团前补给",
		})
		require.NoError(t, err)

		// 流水记的是成交单价快照，不是总价
		assert.Equal(t, "Healing Potion", entry.ItemName)
		assert.Equal(t, int64(30), entry.Price)
		assert.Equal(t, int64(2), entry.Quantity)
		assert.NotEmpty(t, entry.EntryNo)

		character := loadCharacter(t, db, "CHR001")
		assert.Equal(t, int64(40), character.Currency)

		var count int64
		require.NoError(t, db.Model(&model.MarketLogEntry{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		// 成交通知进了发件箱
		var pending int64
		require.NoError(t, db.Model(&model.OutboxMessage{}).
			Where("topic = ? AND status = ?", "ledger.market_log", model.OutboxStatusPending).
			Count(&pending).Error)
		assert.Equal(t, int64(1), pending)
	})

	t.Run("余额不足整单拒绝", func(t *testing.T) {
		_, err := svc.Purchase(ctx, &PurchaseRequest{
			CharacterID: "CHR001",
			ItemName:    "Healing Potion",
			Quantity:    2, // 需要 60，只剩 40
		})
		assert.ErrorIs(t, err, repository.ErrInsufficientFunds)

		// 余额和流水都没动
		character := loadCharacter(t, db, "CHR001")
		assert.Equal(t, int64(40), character.Currency)

		var count int64
		require.NoError(t, db.Model(&model.MarketLogEntry{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("名称匹配不区分大小写", func(t *testing.T) {
		entry, err := svc.Purchase(ctx, &PurchaseRequest{
			CharacterID: "CHR001",
			ItemName:    "healing potion",
			Quantity:    1,
		})
		require.NoError(t, err)
		// 流水里记目录的规范名称
		assert.Equal(t, "Healing Potion", entry.ItemName)

		character := loadCharacter(t, db, "CHR001")
		assert.Equal(t, int64(10), character.Currency)
	})
}

func TestPurchaseValidation(t *testing.T) {
	db := newTestDB(t, "purchase_validation")
	svc := NewMarketService(db, nil, guard.NewLocalGuard(), testConfig())
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100, 0, 1)
	seedItem(t, db, "Rope", 1, model.RarityCommon)

	for _, quantity := range []int64{0, -1} {
		_, err := svc.Purchase(ctx, &PurchaseRequest{
			CharacterID: "CHR001",
			ItemName:    "Rope",
			Quantity:    quantity,
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity=%d", quantity)
	}

	_, err := svc.Purchase(ctx, &PurchaseRequest{
		CharacterID: "CHR001",
		ItemName:    "Vorpal Sword",
		Quantity:    1,
	})
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	_, err = svc.Purchase(ctx, &PurchaseRequest{
		CharacterID: "CHR404",
		ItemName:    "Rope",
		Quantity:    1,
	})
	assert.ErrorIs(t, err, repository.ErrCharacterNotFound)

	// 校验失败时分文未动、分毫未记
	character := loadCharacter(t, db, "CHR001")
	assert.Equal(t, int64(100), character.Currency)

	var count int64
	require.NoError(t, db.Model(&model.MarketLogEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

// 总价溢出 int64 时必须整单拒绝：天文数字的数量乘上单价会回绕成负数，
// 余额检查形同虚设，扣款反而变成充值
func TestPurchaseQuantityOverflow(t *testing.T) {
	db := newTestDB(t, "purchase_overflow")
	svc := NewMarketService(db, nil, guard.NewLocalGuard(), testConfig())
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100, 0, 1)
	seedItem(t, db, "Healing Potion", 30, model.RarityCommon)

	_, err := svc.Purchase(ctx, &PurchaseRequest{
		CharacterID: "CHR001",
		ItemName:    "Healing Potion",
		Quantity:    400000000000000000, // 30 * 4e17 > MaxInt64
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// 分文未动、分毫未记
	character := loadCharacter(t, db, "CHR001")
	assert.Equal(t, int64(100), character.Currency)

	var count int64
	require.NoError(t, db.Model(&model.MarketLogEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

// 并发购买不能超卖：5 个并发请求抢 100 金币，单价 30，
// 最多成交 3 单，余额绝不能变负
func TestPurchaseConcurrentNoOverspend(t *testing.T) {
	db := newTestDB(t, "purchase_concurrent")
	svc := NewMarketService(db, nil, guard.NewLocalGuard(), testConfig())
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 100, 0, 1)
	seedItem(t, db, "Healing Potion", 30, model.RarityCommon)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Purchase(ctx, &PurchaseRequest{
				CharacterID: "CHR001",
				ItemName:    "Healing Potion",
				Quantity:    1,
			})
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("意料之外的错误: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, rejected)

	character := loadCharacter(t, db, "CHR001")
	assert.Equal(t, int64(10), character.Currency)

	var count int64
	require.NoError(t, db.Model(&model.MarketLogEntry{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestMarketListEntries(t *testing.T) {
	db := newTestDB(t, "market_list")
	svc := NewMarketService(db, nil, guard.NewLocalGuard(), testConfig())
	ctx := context.Background()

	seedCharacter(t, db, "CHR001", 1001, 1000, 0, 1)
	seedCharacter(t, db, "CHR002", 1002, 1000, 0, 1)
	seedItem(t, db, "Rope", 1, model.RarityCommon)

	for i := 0; i < 3; i++ {
		_, err := svc.Purchase(ctx, &PurchaseRequest{CharacterID: "CHR001", ItemName: "Rope", Quantity: 1})
		require.NoError(t, err)
	}
	_, err := svc.Purchase(ctx, &PurchaseRequest{CharacterID: "CHR002", ItemName: "Rope", Quantity: 1})
	require.NoError(t, err)

	entries, total, err := svc.ListEntries(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, entries, 4)

	entries, total, err = svc.ListEntries(ctx, "CHR001", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "CHR001", e.CharacterID)
	}
}
