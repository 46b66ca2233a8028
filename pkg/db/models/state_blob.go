package models

import "time"

// StateBlob is one device-scoped JSON blob in the local cart store. The
// storefront keeps two rows per device, under the fixed keys "cart" and
// "wishlist".
type StateBlob struct {
	DeviceID  string    `gorm:"column:device_id;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   []byte    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
