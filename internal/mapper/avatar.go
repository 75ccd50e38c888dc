package mapper

import (
	"net/url"
	"regexp"
)

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// AvatarURL — детерминированная заглушка аватара: одинаковый seed даёт одинаковый URL.
func AvatarURL(seed string) string {
	if seed == "" {
		seed = "default"
	}
	return avatarBaseURL + url.QueryEscape(seed)
}

var hashtagRe = regexp.MustCompile(`#\w+`)

// ExtractHashtags возвращает хэштеги с символом # в порядке появления. Повторы сохраняются.
func ExtractHashtags(content string) []string {
	tags := hashtagRe.FindAllString(content, -1)
	if tags == nil {
		return []string{}
	}
	return tags
}
