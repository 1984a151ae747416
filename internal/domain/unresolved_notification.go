package domain

import (
	"time"

	"gorm.io/datatypes"
)

// UnresolvedNotification is a gateway notification that could not be matched
// to a booking when it arrived. It is retried until resolved.
type UnresolvedNotification struct {
	ID                int64          `json:"id" gorm:"primaryKey"`
	OrderTrackingID   string         `json:"orderTrackingId" gorm:"type:varchar(128);index;not null"`
	MerchantReference string         `json:"orderMerchantReference,omitempty" gorm:"type:varchar(128)"`
	NotificationType  string         `json:"orderNotificationType,omitempty" gorm:"type:varchar(64)"`
	Payload           datatypes.JSON `json:"payload"`
	Attempts          int            `json:"attempts" gorm:"default:0"`
	LastError         string         `json:"lastError,omitempty" gorm:"type:text"`
	ResolvedAt        *time.Time     `json:"resolvedAt,omitempty" gorm:"index"`
	ResolvedBookingID *int64         `json:"resolvedBookingId,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (UnresolvedNotification) TableName() string { return "unresolved_notifications" }
