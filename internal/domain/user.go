package domain

// UserProfile is the authenticated user as reported by /api/users/me.
type UserProfile struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// ProfileUpdate holds the mutable profile fields.
type ProfileUpdate struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordChange holds a password change request.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=128,nefield=CurrentPassword"`
}
