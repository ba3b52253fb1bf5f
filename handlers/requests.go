// handlers/requests.go
package handlers

type StartRequest struct {
	Name string `json:"name" validate:"omitempty,max=64"`
}

type ProfileRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=64"`
	Country   *string  `json:"country" validate:"omitempty,min=1,max=80"`
	Timezone  *string  `json:"timezone" validate:"omitempty,min=1,max=64"`
	Bio       *string  `json:"bio" validate:"omitempty,max=500"`
	Interests []string `json:"interests" validate:"omitempty,max=20,dive,min=1,max=40"`
	Languages []string `json:"languages" validate:"omitempty,max=10,dive,min=1,max=40"`
}

type SkipRequest struct {
	Skip *bool `json:"skip"` // defaults to true
}

type TimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required,max=64"`
}

type GrantScoreRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=64"`
}
