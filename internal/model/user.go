package model

// User — профиль пользователя. IsFollowing относится к текущему зрителю.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	AvatarURL      string `json:"avatarUrl"`
	Bio            string `json:"bio"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
	IsOnline       bool   `json:"isOnline"`
	IsFollowing    bool   `json:"isFollowing"`
}

// UserInput — частичное изменение профиля: nil-поля не записываются.
type UserInput struct {
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	IsOnline    *bool   `json:"isOnline,omitempty"`
}

// Viewer — действующий пользователь запроса (идентичность выдаёт платформа).
type Viewer struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name — отображаемое имя, по умолчанию username.
func (v Viewer) Name() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.Username
}

func (v Viewer) Anonymous() bool { return v.ID == "" }
