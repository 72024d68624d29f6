package entity

// Stock 股票基础信息
type Stock struct {
	Id          int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Ticker      string `gorm:"column:ticker;uniqueIndex;type:varchar(20);not null" json:"ticker"`
	CompanyName string `gorm:"column:company_name;type:varchar(255)" json:"company_name,omitempty"`
	Sector      string `gorm:"column:sector;type:varchar(100)" json:"sector,omitempty"`
	FoundedYear int    `gorm:"column:founded_year" json:"founded_year,omitempty"`
}

func (Stock) TableName() string {
	return "stocks"
}

// StockPrice 每个 ticker 一条价格区间
type StockPrice struct {
	Id     int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Ticker string `gorm:"column:ticker;uniqueIndex;type:varchar(20);not null" json:"ticker"`
	High   int    `gorm:"column:high;not null" json:"high"`
	Low    int    `gorm:"column:low;not null" json:"low"`
}

func (StockPrice) TableName() string {
	return "stock_price"
}
