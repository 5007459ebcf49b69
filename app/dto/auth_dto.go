package dto

import "time"

// LoginRequest represents a member login attempt. CaptchaID and CaptchaAngle
// are required once the account has accumulated failed attempts.
type LoginRequest struct {
	NationalID   string   `json:"national_id" validate:"required,cpf" example:"39053344705"`
	Password     string   `json:"password" validate:"required,min=8,max=128"`
	CaptchaID    *string  `json:"captcha_id,omitempty"`
	CaptchaAngle *float64 `json:"captcha_angle,omitempty"`
}

// TokenPairDTO carries an issued access/refresh token pair
type TokenPairDTO struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// LoginResponse is returned on successful authentication
type LoginResponse struct {
	Member MemberDTO    `json:"member"`
	Tokens TokenPairDTO `json:"tokens"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse carries the new token pair
type RefreshTokenResponse struct {
	Tokens TokenPairDTO `json:"tokens"`
}

// CaptchaChallengeResponse carries a rotate-captcha challenge
type CaptchaChallengeResponse struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
	ThumbBase64 string `json:"thumb_base64"`
}
