package domain

// User es una cuenta registrada. CreatedAt usa TimestampLayout.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at"`
}
