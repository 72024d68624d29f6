package respond

import "time"

type UserRespond struct {
	Id        int64     `json:"id"`
	Uuid      string    `json:"uuid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenRespond struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UsernamesStoryRespond struct {
	Response  string   `json:"response"`
	Usernames []string `json:"usernames"`
}

type MessageRespond struct {
	Message string `json:"message"`
}
