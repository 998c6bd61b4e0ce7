package model

// 稀有度档位（目录表由外部维护，这里只枚举已知取值）
const (
	RarityCommon    = "Common"
	RarityUncommon  = "Uncommon"
	RarityRare      = "Rare"
	RarityVeryRare  = "Very Rare"
	RarityLegendary = "Legendary"
)

// Item 物品目录表
// 对引擎只读，价格变更由外部维护人员直接改表
type Item struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemName string `gorm:"column:item_name;type:varchar(128);uniqueIndex;not null" json:"item_name"`
	Cost     int64  `gorm:"column:cost;not null" json:"cost"` // 单价，非负
	Rarity   string `gorm:"column:rarity;type:varchar(32);not null" json:"rarity"`
}

func (Item) TableName() string {
	return "items"
}
