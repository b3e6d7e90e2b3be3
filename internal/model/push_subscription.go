package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// A subscription belongs to one member and receives a push when one of the
// member's tokens is collected.
type PushSubscription struct {
	Endpoint       string    `gorm:"primaryKey" json:"endpoint"`
	OrganizationID string    `gorm:"index;size:64;not null" json:"organization_id"`
	MemberID       string    `gorm:"index;size:64;not null" json:"member_id"`
	P256DH         string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth           string    `gorm:"not null" json:"auth"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}
