package models

type UserDoc struct {
	UserID          int      `json:"userId" bson:"userId"`
	Email           string   `json:"email" bson:"email"`
	PasswordHash    string   `json:"passwordHash" bson:"passwordHash"`
	Role            string   `json:"role" bson:"role"` // user | admin
	PreferredGenres []string `json:"preferredGenres,omitempty" bson:"preferredGenres,omitempty"`
	CreatedAt       string   `json:"createdAt" bson:"createdAt"`
}
