package handler

import (
	"errors"
	"strconv"

	"campaignledger/internal/config"
	"campaignledger/internal/guard"
	"campaignledger/internal/progression"
	"campaignledger/internal/repository"
	"campaignledger/internal/service"
	"campaignledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	characterService *service.CharacterService
	marketService    *service.MarketService
	gameService      *service.GameService
	reconcileRepo    *repository.ReconciliationRepository
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, g guard.Guard, tables progression.Tables, cfg *config.Config) *Handler {
	return &Handler{
		characterService: service.NewCharacterService(db, tables),
		marketService:    service.NewMarketService(db, rdb, g, cfg),
		gameService:      service.NewGameService(db, g, tables, cfg),
		reconcileRepo:    repository.NewReconciliationRepository(db),
	}
}

// respondError 把引擎错误翻译成业务错误码
//
// 校验类错误前端直接展示；冲突/结果未知要提示玩家是否重试。
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		response.BusinessError(c, response.CodeInvalidQuantity, err.Error())
	case errors.Is(err, service.ErrInvalidRoster):
		response.BusinessError(c, response.CodeInvalidRoster, err.Error())
	case errors.Is(err, service.ErrUnknownParticipant):
		response.BusinessError(c, response.CodeUnknownParticipant, err.Error())
	case errors.Is(err, repository.ErrItemNotFound):
		response.BusinessError(c, response.CodeItemNotFound, err.Error())
	case errors.Is(err, repository.ErrCharacterNotFound):
		response.BusinessError(c, response.CodeCharacterNotFound, err.Error())
	case errors.Is(err, repository.ErrCharacterExists):
		response.BusinessError(c, response.CodeCharacterExists, err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds):
		response.BusinessError(c, response.CodeInsufficientFunds, err.Error())
	case errors.Is(err, repository.ErrOptimisticLock):
		response.BusinessError(c, response.CodeConflict, err.Error())
	case errors.Is(err, repository.ErrStoreUnavailable):
		response.BusinessError(c, response.CodeStoreUnavailable, err.Error())
	case errors.Is(err, service.ErrOutcomeUnknown):
		response.BusinessError(c, response.CodeOutcomeUnknown, err.Error())
	case errors.Is(err, service.ErrLedgerAppendFailed):
		response.BusinessError(c, response.CodeLedgerReconcile, err.Error())
	case errors.Is(err, progression.ErrInvalidAward):
		response.BusinessError(c, response.CodeInvalidAward, err.Error())
	case errors.Is(err, progression.ErrConfig):
		response.BusinessError(c, response.CodeLevelOutOfRange, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 角色相关接口
// ============================================================

// GetCharacter 查询角色信息
// GET /api/v1/character/info?player_id=xxx 或 ?character_id=xxx
func (h *Handler) GetCharacter(c *gin.Context) {
	if characterID := c.Query("character_id"); characterID != "" {
		character, err := h.characterService.GetByCharacterID(c.Request.Context(), characterID)
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, character)
		return
	}

	playerIDStr := c.Query("player_id")
	playerID, err := strconv.ParseInt(playerIDStr, 10, 64)
	if err != nil {
		response.ParamError(c, "player_id 参数错误")
		return
	}

	character, err := h.characterService.GetByPlayerID(c.Request.Context(), playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, character)
}

// CreateCharacterRequest 创建角色请求
type CreateCharacterRequest struct {
	PlayerID      int64  `json:"player_id" binding:"required"`
	CharacterName string `json:"character_name" binding:"required"`
	StartingLevel int    `json:"starting_level"` // 0 表示用默认起始等级
}

// CreateCharacter 创建角色
// POST /api/v1/character/create
func (h *Handler) CreateCharacter(c *gin.Context) {
	var req CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	character, err := h.characterService.Create(c.Request.Context(), req.PlayerID, req.CharacterName, req.StartingLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, character)
}

// ============================================================
// 物品目录接口
// ============================================================

// GetItem 查询物品
// GET /api/v1/catalog/item?name=xxx
func (h *Handler) GetItem(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.ParamError(c, "name 参数不能为空")
		return
	}

	item, err := h.marketService.LookupItem(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, item)
}

// ListItems 物品目录清单
// GET /api/v1/catalog/list
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.marketService.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"list": items})
}

// ============================================================
// 购买接口
// ============================================================

// PurchaseRequest 购买请求
type PurchaseRequest struct {
	CharacterID string `json:"character_id" binding:"required"`
	ItemName    string `json:"item_name" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required"`
	Notes       string `json:"notes"`
}

// Purchase 购买物品
// POST /api/v1/market/purchase
//
// 【关键点】购买是最核心的写操作：
// 1. 校验先行：数量、物品、余额都查清楚才动账
// 2. 角色锁 + 乐观锁双保险，同一角色绝不并发扣款
// 3. 流水单价是成交时的快照
func (h *Handler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	entry, err := h.marketService.Purchase(c.Request.Context(), &service.PurchaseRequest{
		CharacterID: req.CharacterID,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, entry)
}

// ListMarketLog 购买流水列表
// GET /api/v1/market/log?character_id=xxx&page=1&page_size=10
func (h *Handler) ListMarketLog(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	entries, total, err := h.marketService.ListEntries(c.Request.Context(), c.Query("character_id"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 跑团记录接口
// ============================================================

// LogGameRequest 跑团记录请求
type LogGameRequest struct {
	DMID           int64    `json:"dm_id" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
	XPAward        int64    `json:"xp_award"`
	GoldAward      int64    `json:"gold_award"`
}

// LogGame 记一场跑团并给参与者发奖
// POST /api/v1/game/log
func (h *Handler) LogGame(c *gin.Context) {
	var req LogGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.gameService.LogGame(c.Request.Context(), &service.LogGameRequest{
		DMID:           req.DMID,
		ParticipantIDs: req.ParticipantIDs,
		XPAward:        req.XPAward,
		GoldAward:      req.GoldAward,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// ListGameLog 跑团记录列表
// GET /api/v1/game/log?dm_id=xxx&page=1&page_size=10
func (h *Handler) ListGameLog(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	var dmID int64
	if dmIDStr := c.Query("dm_id"); dmIDStr != "" {
		var err error
		dmID, err = strconv.ParseInt(dmIDStr, 10, 64)
		if err != nil {
			response.ParamError(c, "dm_id 参数错误")
			return
		}
	}

	entries, total, err := h.gameService.ListEntries(c.Request.Context(), dmID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ============================================================
// 运维接口
// ============================================================

// ListManualReconciliations 待人工核对的对账记录
// GET /api/v1/admin/reconcile/manual?limit=50
func (h *Handler) ListManualReconciliations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.reconcileRepo.ListManual(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"list": records})
}
