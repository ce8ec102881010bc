package models

import "gorm.io/gorm"

// CreateDefaultSettings seeds the platform settings on first boot.
func CreateDefaultSettings(db *gorm.DB) error {
	defaults := []PlatformSetting{
		{
			Key:         "commission_percent",
			Value:       "20",
			Description: "Platform commission on every paid collaboration (display only; the split is fixed in code)",
		},
		{
			Key:         "support_email",
			Value:       "support@uvocollab.com",
			Description: "Address shown on receipts and dispute pages",
		},
		{
			Key:         "payout_delay_hours",
			Value:       "0",
			Description: "Delay between completion and payout release",
		},
		{
			Key:         "max_deliverable_mb",
			Value:       "100",
			Description: "Upload size cap for a single deliverable",
		},
	}
	for _, setting := range defaults {
		if err := db.FirstOrCreate(&setting, "key = ?", setting.Key).Error; err != nil {
			return err
		}
	}
	return nil
}
