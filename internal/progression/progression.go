package progression

import (
	"errors"
	"fmt"
	"math"

	"campaignledger/internal/config"
	"campaignledger/internal/model"
)

var (
	// ErrConfig 成长表配置错误（启动时校验失败，或等级超出表的定义域）
	ErrConfig = errors.New("成长表配置错误")
	// ErrInvalidAward 奖励数值不合法（负经验，或金币会被扣成负数）
	ErrInvalidAward = errors.New("奖励数值不合法")
)

// GoldTier 初始金币分段：从 FromLevel 起每级累加 GoldPerLevel
type GoldTier struct {
	FromLevel    int
	GoldPerLevel int64
}

// Tables 成长表：等级↔经验、等级→初始金币的纯映射
//
// 进程启动时构造并校验一次，之后只读。所有方法无 I/O、无副作用，
// 同样的输入永远得到同样的输出。
type Tables struct {
	StartingLevel int
	MaxLevel      int
	XPThresholds  []int64 // 升到 2 级、3 级……所需累计经验，严格递增
	GoldTiers     []GoldTier
}

// FromConfig 从配置构造成长表并校验
func FromConfig(cfg config.ProgressionConfig) (Tables, error) {
	tiers := make([]GoldTier, 0, len(cfg.GoldTiers))
	for _, t := range cfg.GoldTiers {
		tiers = append(tiers, GoldTier{FromLevel: t.FromLevel, GoldPerLevel: t.GoldPerLevel})
	}
	tables := Tables{
		StartingLevel: cfg.StartingLevel,
		MaxLevel:      cfg.MaxLevel,
		XPThresholds:  cfg.XPThresholds,
		GoldTiers:     tiers,
	}
	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

// Validate 校验成长表自洽性
func (t Tables) Validate() error {
	if t.MaxLevel < 1 {
		return fmt.Errorf("%w: max_level 必须 >= 1", ErrConfig)
	}
	if t.StartingLevel < 1 || t.StartingLevel > t.MaxLevel {
		return fmt.Errorf("%w: starting_level %d 超出 [1, %d]", ErrConfig, t.StartingLevel, t.MaxLevel)
	}
	if len(t.XPThresholds) != t.MaxLevel-1 {
		return fmt.Errorf("%w: xp_thresholds 需要 %d 项，实际 %d 项", ErrConfig, t.MaxLevel-1, len(t.XPThresholds))
	}
	prev := int64(0)
	for i, th := range t.XPThresholds {
		if th <= prev {
			return fmt.Errorf("%w: xp_thresholds 第 %d 项必须严格递增", ErrConfig, i+1)
		}
		prev = th
	}
	prevFrom := 0
	for i, tier := range t.GoldTiers {
		if tier.FromLevel <= prevFrom {
			return fmt.Errorf("%w: gold_tiers 第 %d 项的 from_level 必须递增", ErrConfig, i+1)
		}
		if tier.FromLevel > t.MaxLevel {
			return fmt.Errorf("%w: gold_tiers 第 %d 项的 from_level 超过 max_level", ErrConfig, i+1)
		}
		if tier.GoldPerLevel < 0 {
			return fmt.Errorf("%w: gold_tiers 第 %d 项的 gold_per_level 不能为负", ErrConfig, i+1)
		}
		prevFrom = tier.FromLevel
	}
	return nil
}

// LevelFor 由累计经验推导等级
//
// 等级 = 不超过 experience 的阈值个数 + 1。
// 对任意非负经验都有定义，且随经验单调不减，上限就是表长决定的满级。
func (t Tables) LevelFor(experience int64) int {
	level := 1
	for _, th := range t.XPThresholds {
		if experience < th {
			break
		}
		level++
	}
	return level
}

// MinExperience 某等级所需的最低累计经验
func (t Tables) MinExperience(level int) int64 {
	if level <= 1 {
		return 0
	}
	return t.XPThresholds[level-2]
}

// StartingGold 某等级开局的初始金币（分段累加表）
//
// 低于第一档的等级开局没有额外金币；等级超出表的定义域属于配置错误。
func (t Tables) StartingGold(level int) (int64, error) {
	if level < 1 || level > t.MaxLevel {
		return 0, fmt.Errorf("%w: 等级 %d 超出 [1, %d]", ErrConfig, level, t.MaxLevel)
	}
	var gold int64
	for i, tier := range t.GoldTiers {
		if level < tier.FromLevel {
			break
		}
		// 本档覆盖到下一档开始的前一级（最后一档覆盖到满级）
		end := t.MaxLevel
		if i+1 < len(t.GoldTiers) {
			end = t.GoldTiers[i+1].FromLevel - 1
		}
		if level < end {
			end = level
		}
		gold += tier.GoldPerLevel * int64(end-tier.FromLevel+1)
	}
	return gold, nil
}

// ApplyAward 计算发奖后的角色状态，不修改入参，由调用方负责落库
//
// 拒绝负经验奖励；金币奖励可以为负（比如赛后罚金），但不允许把余额扣成负数。
// 等级永远按新经验重新推导。
func (t Tables) ApplyAward(c *model.Character, xpGain, goldGain int64) (*model.Character, error) {
	if xpGain < 0 {
		return nil, fmt.Errorf("%w: 经验奖励不能为负 (%d)", ErrInvalidAward, xpGain)
	}
	// 相加回绕会把经验/金币变成负数，必须在算新值前拦住
	if xpGain > math.MaxInt64-c.Experience {
		return nil, fmt.Errorf("%w: 经验奖励超出可结算范围 (%d)", ErrInvalidAward, xpGain)
	}
	if goldGain > 0 && goldGain > math.MaxInt64-c.Currency {
		return nil, fmt.Errorf("%w: 金币奖励超出可结算范围 (%d)", ErrInvalidAward, goldGain)
	}
	if c.Currency+goldGain < 0 {
		return nil, fmt.Errorf("%w: 金币会被扣成负数 (%d%+d)", ErrInvalidAward, c.Currency, goldGain)
	}
	next := *c
	next.Experience = c.Experience + xpGain
	next.Currency = c.Currency + goldGain
	next.Level = t.LevelFor(next.Experience)
	return &next, nil
}
