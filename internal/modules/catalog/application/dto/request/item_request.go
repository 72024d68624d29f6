package request

type SomeItemsRequest struct {
	Limit *int `form:"limit" binding:"omitempty,gte=0"`
}

type DecrementRequest struct {
	Id     int `uri:"id" binding:"required"`
	Amount int `uri:"amount" binding:"gte=0"`
}

type RecommendationsRequest struct {
	Amount *int `form:"amount" binding:"omitempty,gte=1,lte=20"`
}
