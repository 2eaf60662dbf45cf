package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table         string
	ID            string
	Email         string
	Password      string
	RefreshTokens string
	Roles         string
	AvatarKey     string
	ResetToken    string
	CreatedAt     string
	UpdatedAt     string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:         "users.account",
	ID:            "id",
	Email:         "email",
	Password:      "passwordhash",
	RefreshTokens: "refreshtokens",
	Roles:         "roles",
	AvatarKey:     "avatarkey",
	ResetToken:    "resettoken",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
}

// Columns returns the columns hydrated into an identity, in scan order.
// Refresh tokens are left out; they are only touched through the session store.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.Roles, t.AvatarKey,
		t.ResetToken, t.CreatedAt, t.UpdatedAt,
	}
}
