package domain

type Group struct {
	Name      string `json:"name"`
	Creator   string `json:"creator"`
	CreatedAt string `json:"created_at"`
}
