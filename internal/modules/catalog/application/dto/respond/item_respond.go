package respond

type DecrementRespond struct {
	Message   string `json:"message"`
	Inventory int    `json:"inventory"`
}
