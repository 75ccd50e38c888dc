package mapper

import "github.com/miamiwave/internal/record"

// Имена полей в хранилище.
const (
	FieldName = "Name"

	UserUsername       = "username"
	UserDisplayName    = "display_name"
	UserAvatar         = "avatar"
	UserBio            = "bio"
	UserFollowersCount = "followers_count"
	UserFollowingCount = "following_count"
	UserIsOnline       = "is_online"
	UserIsFollowing    = "is_following"

	PostUsername    = "username"
	PostDisplayName = "display_name"
	PostContent     = "content"
	PostImageURL    = "image_url"
	PostLikes       = "likes"
	PostHashtags    = "hashtags"
	PostTimestamp   = "timestamp"

	ChatName                  = "name"
	ChatParticipantIDs        = "participant_ids"
	ChatAvatarURL             = "avatar_url"
	ChatLastMessageContent    = "last_message_content"
	ChatLastMessageTimestamp  = "last_message_timestamp"
	ChatLastMessageSenderID   = "last_message_sender_id"
	ChatLastMessageSenderName = "last_message_sender_username"
	ChatCreatedAt             = "created_at"

	MessageChatID         = "chat_id"
	MessageSenderID       = "sender_id"
	MessageSenderUsername = "sender_username"
	MessageContent        = "content"
	MessageTimestamp      = "timestamp"
	MessageReadBy         = "read_by"
	MessageType           = "type"

	NotificationType      = "type"
	NotificationContent   = "content"
	NotificationIsRead    = "is_read"
	NotificationRecipient = "recipient"

	ChannelName         = "channel_name"
	ChannelDescription  = "description"
	ChannelMessageCount = "message_count"
	ChannelIsActive     = "is_active"
	ChannelJoinedBy     = "joined_by"

	SettingLogoURL           = "logo_url"
	SettingAnimationSettings = "animation_settings"
	SettingTheme             = "theme"
)

var UserSchema = Schema{Collection: record.CollectionUser, Columns: []Column{
	{Storage: FieldName, Domain: "name", Kind: KindString},
	{Storage: UserUsername, Domain: "username", Kind: KindString},
	{Storage: UserDisplayName, Domain: "displayName", Kind: KindString},
	{Storage: UserAvatar, Domain: "avatarUrl", Kind: KindString},
	{Storage: UserBio, Domain: "bio", Kind: KindString, Default: ""},
	{Storage: UserFollowersCount, Domain: "followersCount", Kind: KindInt, Default: 0},
	{Storage: UserFollowingCount, Domain: "followingCount", Kind: KindInt, Default: 0},
	{Storage: UserIsOnline, Domain: "isOnline", Kind: KindBool, Default: false},
	{Storage: UserIsFollowing, Domain: "isFollowing", Kind: KindBool, Default: false},
}}

var PostSchema = Schema{Collection: record.CollectionPost, Columns: []Column{
	{Storage: FieldName, Domain: "name", Kind: KindString},
	{Storage: PostUsername, Domain: "username", Kind: KindString},
	{Storage: PostDisplayName, Domain: "displayName", Kind: KindString},
	{Storage: PostContent, Domain: "content", Kind: KindString},
	{Storage: PostImageURL, Domain: "imageUrl", Kind: KindString, Default: ""},
	{Storage: PostLikes, Domain: "likes", Kind: KindList},
	{Storage: PostHashtags, Domain: "hashtags", Kind: KindList},
	{Storage: PostTimestamp, Domain: "timestamp", Kind: KindTime},
}}

var ChatSchema = Schema{Collection: record.CollectionChat, Columns: []Column{
	{Storage: FieldName, Domain: "title", Kind: KindString},
	{Storage: ChatName, Domain: "name", Kind: KindString},
	{Storage: ChatParticipantIDs, Domain: "participantIds", Kind: KindList},
	{Storage: ChatAvatarURL, Domain: "avatarUrl", Kind: KindString, Default: ""},
	{Storage: ChatLastMessageContent, Domain: "lastMessage.content", Kind: KindString},
	{Storage: ChatLastMessageTimestamp, Domain: "lastMessage.timestamp", Kind: KindTime},
	{Storage: ChatLastMessageSenderID, Domain: "lastMessage.senderId", Kind: KindString},
	{Storage: ChatLastMessageSenderName, Domain: "lastMessage.senderUsername", Kind: KindString},
	{Storage: ChatCreatedAt, Domain: "createdAt", Kind: KindTime},
}}

var MessageSchema = Schema{Collection: record.CollectionMessage, Columns: []Column{
	{Storage: MessageChatID, Domain: "chatId", Kind: KindInt},
	{Storage: MessageSenderID, Domain: "senderId", Kind: KindString},
	{Storage: MessageSenderUsername, Domain: "senderUsername", Kind: KindString},
	{Storage: MessageContent, Domain: "content", Kind: KindString},
	{Storage: MessageTimestamp, Domain: "timestamp", Kind: KindTime},
	{Storage: MessageReadBy, Domain: "readBy", Kind: KindList},
	{Storage: MessageType, Domain: "type", Kind: KindString, Default: "text"},
}}

var NotificationSchema = Schema{Collection: record.CollectionNotification, Columns: []Column{
	{Storage: FieldName, Domain: "name", Kind: KindString},
	{Storage: NotificationType, Domain: "type", Kind: KindString, Default: "other"},
	{Storage: NotificationContent, Domain: "content", Kind: KindString},
	{Storage: NotificationIsRead, Domain: "isRead", Kind: KindBool, Default: false},
	{Storage: record.FieldCreatedOn, Domain: "timestamp", Kind: KindTime},
	{Storage: NotificationRecipient, Domain: "recipient", Kind: KindRef, RefCollection: record.CollectionUser, RefField: UserUsername},
}}

var ChannelSchema = Schema{Collection: record.CollectionChannel, Columns: []Column{
	{Storage: FieldName, Domain: "name", Kind: KindString},
	{Storage: ChannelName, Domain: "channelName", Kind: KindString},
	{Storage: ChannelDescription, Domain: "description", Kind: KindString, Default: ""},
	{Storage: record.FieldCreatedOn, Domain: "createdOn", Kind: KindTime},
	{Storage: ChannelMessageCount, Domain: "messageCount", Kind: KindInt, Default: 0},
	{Storage: ChannelIsActive, Domain: "isActive", Kind: KindBool, Default: false},
	{Storage: ChannelJoinedBy, Domain: "joinedBy", Kind: KindList},
}}

var SettingSchema = Schema{Collection: record.CollectionSettings, Columns: []Column{
	{Storage: FieldName, Domain: "name", Kind: KindString},
	{Storage: SettingLogoURL, Domain: "logoUrl", Kind: KindString, Default: ""},
	{Storage: SettingAnimationSettings, Domain: "animationSettings", Kind: KindString, Default: ""},
	{Storage: SettingTheme, Domain: "theme", Kind: KindString, Default: "default"},
}}
