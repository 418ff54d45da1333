package domain

// User is the identity behind a session token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Session pairs a bearer token with the user it resolves to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
