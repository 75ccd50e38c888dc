package model

type Setting struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	LogoURL           string `json:"logoUrl"`
	AnimationSettings string `json:"animationSettings"`
	Theme             string `json:"theme"`
}

type SettingInput struct {
	Name              *string `json:"name,omitempty"`
	LogoURL           *string `json:"logoUrl,omitempty"`
	AnimationSettings *string `json:"animationSettings,omitempty"`
	Theme             *string `json:"theme,omitempty"`
}
