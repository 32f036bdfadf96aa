package domain

import "time"

// Notification is a change detected on a monitored case.
type Notification struct {
	ID         int64  `json:"id"`
	Message    string `json:"message"`
	SentAt     string `json:"sentAt"`
	CaseNumber string `json:"caseNumber"`
	CaseID     int64  `json:"caseId"`
	Read       bool   `json:"read,omitempty"`
}

// SentAtTime parses SentAt; the zero time is returned when it is unparseable.
func (n Notification) SentAtTime() time.Time {
	return parseBackendTime(n.SentAt)
}

// NotificationSettings are the per-case notification preferences.
type NotificationSettings struct {
	NotificationIntervalMinutes    int  `json:"notificationIntervalMinutes" validate:"min=1"`
	EmailEnabled                   bool `json:"emailEnabled"`
	SMSEnabled                     bool `json:"smsEnabled"`
	NotifyOnHearingChanges         bool `json:"notifyOnHearingChanges"`
	NotifyOnStatusChanges          bool `json:"notifyOnStatusChanges"`
	NotifyOnPartyChanges           bool `json:"notifyOnPartyChanges"`
	NotifyOnProceduralStageChanges bool `json:"notifyOnProceduralStageChanges"`
}

// DefaultNotificationSettings returns the settings the backend applies to a
// case that has none stored.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		NotificationIntervalMinutes:    60,
		EmailEnabled:                   true,
		SMSEnabled:                     false,
		NotifyOnHearingChanges:         true,
		NotifyOnStatusChanges:          true,
		NotifyOnPartyChanges:           true,
		NotifyOnProceduralStageChanges: true,
	}
}

// DefaultMonitoringIntervalMinutes is used when monitoring is started without an interval.
const DefaultMonitoringIntervalMinutes = 60
