package request

type ChatInputRequest struct {
	Input string `json:"input" binding:"required"`
}

type ChatWithMemoryRequest struct {
	Input     string `json:"input" binding:"required"`
	SessionId string `json:"session_id"`
}
