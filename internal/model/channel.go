package model

import "time"

type Channel struct {
	ID           int64     `json:"id"`
	ChannelName  string    `json:"channelName"`
	Description  string    `json:"description"`
	CreatedOn    time.Time `json:"createdOn"`
	MemberCount  int       `json:"memberCount"`
	MessageCount int       `json:"messageCount"`
	IsActive     bool      `json:"isActive"`
	IsJoined     bool      `json:"isJoined"`
	JoinedBy     []string  `json:"-"`
}

type ChannelInput struct {
	ChannelName *string `json:"channelName,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}
