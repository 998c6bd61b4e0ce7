package model

import (
	"fmt"
	"strconv"
)

// 外部表格的表头契约。列顺序是兼容性的一部分，不能调整。
var (
	CharacterHeaders = []string{"player id", "character name", "character id", "currency", "experience", "level"}
	ItemHeaders      = []string{"item name", "cost", "rarity"}
	MarketLogHeaders = []string{"date", "character id", "item name", "price", "quantity", "notes"}
	GameLogHeaders   = []string{"date", "dm id", "p1 id", "p2 id", "p3 id", "p4 id", "p5 id", "p6 id"}
)

// SheetRow 把角色编码成外部表格的一行（按 CharacterHeaders 顺序）
func (c *Character) SheetRow() []string {
	return []string{
		strconv.FormatInt(c.PlayerID, 10),
		c.CharacterName,
		c.CharacterID,
		strconv.FormatInt(c.Currency, 10),
		strconv.FormatInt(c.Experience, 10),
		strconv.Itoa(c.Level),
	}
}

// CharacterFromSheetRow 解析外部表格的角色行
func CharacterFromSheetRow(row []string) (*Character, error) {
	if len(row) < len(CharacterHeaders) {
		return nil, fmt.Errorf("角色行列数不足: 期望 %d 列，实际 %d 列", len(CharacterHeaders), len(row))
	}
	playerID, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("player id 不是整数: %q", row[0])
	}
	currency, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("currency 不是整数: %q", row[3])
	}
	experience, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("experience 不是整数: %q", row[4])
	}
	level, err := strconv.Atoi(row[5])
	if err != nil {
		return nil, fmt.Errorf("level 不是整数: %q", row[5])
	}
	return &Character{
		PlayerID:      playerID,
		CharacterName: row[1],
		CharacterID:   row[2],
		Currency:      currency,
		Experience:    experience,
		Level:         level,
	}, nil
}

// ItemFromSheetRow 解析外部表格的物品行
func ItemFromSheetRow(row []string) (*Item, error) {
	if len(row) < len(ItemHeaders) {
		return nil, fmt.Errorf("物品行列数不足: 期望 %d 列，实际 %d 列", len(ItemHeaders), len(row))
	}
	cost, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cost 不是整数: %q", row[1])
	}
	if cost < 0 {
		return nil, fmt.Errorf("cost 不能为负: %d", cost)
	}
	return &Item{
		ItemName: row[0],
		Cost:     cost,
		Rarity:   row[2],
	}, nil
}

// SheetRow 把购买流水编码成外部表格的一行
func (e *MarketLogEntry) SheetRow() []string {
	return []string{
		e.Date,
		e.CharacterID,
		e.ItemName,
		strconv.FormatInt(e.Price, 10),
		strconv.FormatInt(e.Quantity, 10),
		e.Notes,
	}
}

// SheetRow 把跑团记录编码成外部表格的一行，尾部空位保持空字符串
func (e *GameLogEntry) SheetRow() []string {
	return []string{
		e.Date,
		strconv.FormatInt(e.DMID, 10),
		e.P1, e.P2, e.P3, e.P4, e.P5, e.P6,
	}
}

// GameLogEntryFromSheetRow 解析跑团记录行，容忍尾部参与者列缺失
func GameLogEntryFromSheetRow(row []string) (*GameLogEntry, error) {
	if len(row) < 3 {
		return nil, fmt.Errorf("跑团记录行列数不足: 至少 3 列，实际 %d 列", len(row))
	}
	dmID, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("dm id 不是整数: %q", row[1])
	}
	entry := &GameLogEntry{
		Date: row[0],
		DMID: dmID,
	}
	var ids []string
	for i := 2; i < len(row) && i < 2+MaxParticipants; i++ {
		if row[i] == "" {
			break
		}
		ids = append(ids, row[i])
	}
	entry.SetParticipants(ids)
	return entry, nil
}
