package models

// User is the application profile stored at users/{uid}.
type User struct {
	Email                string `json:"email"`
	Username             string `json:"username"`
	GoogleProfilePicture string `json:"googleProfilePicture,omitempty"`
	CreatedAt            int64  `json:"createdAt"`
}

// GoogleProfile holds the claims extracted from a Google ID token before
// the user has completed registration.
type GoogleProfile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}
