package entity

// Item 库存商品；binding 标签同时用于校验模型生成的推荐
type Item struct {
	Id          int     `json:"id" binding:"gt=0"`
	Name        string  `json:"name" binding:"min=3,max=50"`
	Description string  `json:"description" binding:"min=10,max=100"`
	Inventory   int     `json:"inventory" binding:"gte=0,lte=100"`
	Price       float64 `json:"price" binding:"gt=0"`
}
