package respond

type ChatRespond struct {
	Reply string `json:"reply"`
}

type ChatWithMemoryRespond struct {
	Reply         string   `json:"reply"`
	MessageMemory []string `json:"message_memory"`
}

type SummaryRespond struct {
	Summary string `json:"summary"`
}

type RecommendationRespond struct {
	Recommendation string `json:"recommendation"`
}

type AnalysisRespond struct {
	Answer string `json:"answer"`
}

type ClearSessionRespond struct {
	SessionId string `json:"session_id"`
}
