package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"campaignledger/internal/config"
	"campaignledger/internal/infrastructure/database"
	"campaignledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 导入工具：把外部表格导出的 CSV 灌进库里。
// 表头必须与兼容性契约完全一致（列顺序也算数）。
//
// 用法:
//   importer -table=characters -file=characters.csv
//   importer -table=items -file=items.csv
func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "配置文件路径")
		table      = flag.String("table", "", "导入目标: characters / items")
		file       = flag.String("file", "", "CSV 文件路径")
	)
	flag.Parse()

	if *table == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig(*configPath)
	db := database.InitMySQL(&cfg.MySQL)

	rows, err := readCSV(*file)
	if err != nil {
		log.Fatalf("读取 CSV 失败: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("CSV 为空: %s", *file)
	}

	switch *table {
	case "characters":
		err = importCharacters(db, rows)
	case "items":
		err = importItems(db, rows)
	default:
		log.Fatalf("不支持的导入目标: %s", *table)
	}

	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // 尾部列允许缺失
	return reader.ReadAll()
}

// checkHeaders 校验表头与契约一致
func checkHeaders(got, want []string) error {
	if len(got) < len(want) {
		return fmt.Errorf("表头列数不足: 期望 %d 列，实际 %d 列", len(want), len(got))
	}
	for i, h := range want {
		if strings.TrimSpace(strings.ToLower(got[i])) != h {
			return fmt.Errorf("表头第 %d 列不匹配: 期望 %q，实际 %q", i+1, h, got[i])
		}
	}
	return nil
}

func importCharacters(db *gorm.DB, rows [][]string) error {
	if err := checkHeaders(rows[0], model.CharacterHeaders); err != nil {
		return err
	}

	imported, skipped := 0, 0
	for i, row := range rows[1:] {
		character, err := model.CharacterFromSheetRow(row)
		if err != nil {
			log.Printf("第 %d 行跳过: %v", i+2, err)
			skipped++
			continue
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}},
			DoNothing: true,
		}).Create(character)
		if result.Error != nil {
			return fmt.Errorf("第 %d 行写入失败: %w", i+2, result.Error)
		}
		if result.RowsAffected == 0 {
			log.Printf("第 %d 行跳过: 玩家 %d 已有角色", i+2, character.PlayerID)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("角色导入完成: 成功 %d, 跳过 %d", imported, skipped)
	return nil
}

func importItems(db *gorm.DB, rows [][]string) error {
	if err := checkHeaders(rows[0], model.ItemHeaders); err != nil {
		return err
	}

	imported, skipped := 0, 0
	for i, row := range rows[1:] {
		item, err := model.ItemFromSheetRow(row)
		if err != nil {
			log.Printf("第 %d 行跳过: %v", i+2, err)
			skipped++
			continue
		}

		// 目录由外部维护，重复导入按覆盖处理
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"cost", "rarity"}),
		}).Create(item)
		if result.Error != nil {
			return fmt.Errorf("第 %d 行写入失败: %w", i+2, result.Error)
		}
		imported++
	}

	log.Printf("物品导入完成: 成功 %d, 跳过 %d", imported, skipped)
	return nil
}
