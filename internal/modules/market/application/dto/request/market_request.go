package request

type CreateStockRequest struct {
	Ticker      string `json:"ticker" binding:"required,max=20"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	FoundedYear int    `json:"founded_year"`
}

type CreatePriceRequest struct {
	Ticker string `json:"ticker" binding:"required,max=20"`
	High   int    `json:"high"`
	Low    int    `json:"low"`
}
