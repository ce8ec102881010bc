package models

import "gorm.io/gorm"

// PlatformSetting is an admin-editable key/value pair. The commission
// split itself is fixed at 20% in the lifecycle package; the setting is
// informational and drives display only.
type PlatformSetting struct {
	gorm.Model
	Key         string `gorm:"uniqueIndex;not null" json:"key"`
	Value       string `gorm:"not null" json:"value"`
	Description string `json:"description"`
}
