package dto

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateUserRequest struct {
	Username               string  `json:"username" validate:"required"`
	Name                   string  `json:"name" validate:"required"`
	Email                  *string `json:"email" validate:"omitempty,email"`
	Password               string  `json:"password" validate:"required,min=8"`
	Role                   string  `json:"role" validate:"required,oneof=member admin"`
	NotificationExpiryDays int     `json:"notification_expiry_days" validate:"omitempty,min=1,max=90"`
	NotifyByEmail          bool    `json:"notify_by_email"`
}

type UpdateUserRequest struct {
	Name                   string  `json:"name"`
	Email                  *string `json:"email" validate:"omitempty,email"`
	Password               string  `json:"password" validate:"omitempty,min=8"`
	Role                   string  `json:"role" validate:"omitempty,oneof=member admin"`
	NotificationExpiryDays *int    `json:"notification_expiry_days" validate:"omitempty,min=1,max=90"`
	NotifyByEmail          *bool   `json:"notify_by_email"`
}

type UserResponse struct {
	ID                     string  `json:"id"`
	Username               string  `json:"username"`
	Name                   string  `json:"name"`
	Email                  *string `json:"email,omitempty"`
	Role                   string  `json:"role"`
	NotificationExpiryDays int     `json:"notification_expiry_days"`
	NotifyByEmail          bool    `json:"notify_by_email"`
	Active                 bool    `json:"active"`
}
