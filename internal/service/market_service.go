package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"campaignledger/internal/config"
	"campaignledger/internal/guard"
	"campaignledger/internal/model"
	"campaignledger/internal/repository"
	"campaignledger/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// MarketService 购买流水的记账入口
type MarketService struct {
	cfg           *config.Config
	guard         guard.Guard
	charRepo      *repository.CharacterRepository
	catalog       *repository.ItemCatalog
	marketRepo    *repository.MarketLogRepository
	outboxRepo    *repository.OutboxRepository
	reconcileRepo *repository.ReconciliationRepository
}

func NewMarketService(db *gorm.DB, rdb *redis.Client, g guard.Guard, cfg *config.Config) *MarketService {
	return &MarketService{
		cfg:           cfg,
		guard:         g,
		charRepo:      repository.NewCharacterRepository(db),
		catalog:       repository.NewItemCatalog(db, rdb, time.Duration(cfg.Business.CatalogCacheSeconds)*time.Second),
		marketRepo:    repository.NewMarketLogRepository(db),
		outboxRepo:    repository.NewOutboxRepository(db),
		reconcileRepo: repository.NewReconciliationRepository(db),
	}
}

type PurchaseRequest struct {
	CharacterID string `json:"character_id"`
	ItemName    string `json:"item_name"`
	Quantity    int64  `json:"quantity"`
	Notes       string `json:"notes"`
}

// Purchase 购买：校验 → 角色锁内扣款 → 追加购买流水
//
// 【关键点】扣款和流水追加是对外部存储的两次独立写入，中间没有事务。
// 流水追加失败时扣款不回滚（存储没有补偿事务可用），而是把流水原文
// 记入对账队列限次补写，错误照样向上抛，绝不悄悄吞掉差异。
func (s *MarketService) Purchase(ctx context.Context, req *PurchaseRequest) (*model.MarketLogEntry, error) {
	// 数量校验在最前面，任何状态都还没碰
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, req.Quantity)
	}

	item, err := s.catalog.Lookup(ctx, req.ItemName)
	if err != nil {
		return nil, err
	}

	// 总价溢出会把扣款变成充值，必须在动账前拦住
	if item.Cost > 0 && req.Quantity > math.MaxInt64/item.Cost {
		return nil, fmt.Errorf("%w: 数量 %d 超出可结算范围", ErrInvalidQuantity, req.Quantity)
	}
	total := item.Cost * req.Quantity

	release, err := s.guard.Acquire(ctx, req.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer release()

	// 进了临界区就跑到底，不再响应调用方取消，
	// 避免扣了款却没来得及记流水
	ctx = context.WithoutCancel(ctx)

	err = withRetry(ctx, &s.cfg.Business, func() error {
		character, err := s.charRepo.GetByCharacterID(ctx, req.CharacterID)
		if err != nil {
			return err
		}
		if character.Currency < total {
			return repository.ErrInsufficientFunds
		}
		return s.charRepo.Debit(ctx, req.CharacterID, total, character.Version)
	})
	if err != nil {
		return nil, err
	}

	entry := &model.MarketLogEntry{
		EntryNo:     idgen.GenerateMarketEntryNo(),
		Date:        time.Now().Format(model.DateLayout),
		CharacterID: req.CharacterID,
		ItemName:    item.ItemName,
		Price:       item.Cost, // 成交单价快照，与目录后续改价无关
		Quantity:    req.Quantity,
		Notes:       req.Notes,
	}

	if err := s.marketRepo.Append(ctx, entry); err != nil {
		enqueueReconciliation(ctx, s.reconcileRepo, model.ReconcileKindMarketAppend, entry.EntryNo, entry, err)
		return entry, fmt.Errorf("%w: %v", ErrLedgerAppendFailed, err)
	}

	announce(ctx, s.outboxRepo, s.cfg.Kafka.Topic.MarketLog, entry.EntryNo, entry)

	log.Printf("购买成功: entryNo=%s, characterID=%s, item=%s, total=%d",
		entry.EntryNo, req.CharacterID, item.ItemName, total)

	return entry, nil
}

// LookupItem 查询物品单价/稀有度
func (s *MarketService) LookupItem(ctx context.Context, itemName string) (*model.Item, error) {
	return s.catalog.Lookup(ctx, itemName)
}

// ListItems 物品目录全量清单
func (s *MarketService) ListItems(ctx context.Context) ([]*model.Item, error) {
	return s.catalog.List(ctx)
}

// ListEntries 购买流水分页查询
func (s *MarketService) ListEntries(ctx context.Context, characterID string, page, pageSize int) ([]*model.MarketLogEntry, int64, error) {
	if characterID != "" {
		return s.marketRepo.ListByCharacterID(ctx, characterID, page, pageSize)
	}
	return s.marketRepo.List(ctx, page, pageSize)
}

