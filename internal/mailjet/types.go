// Package mailjet provides a client for the Mailjet v3 REST statistics API.
package mailjet

const (
	// PeriodDay lists campaigns sent during the current day.
	PeriodDay Period = "Day"

	// PeriodMonth lists campaigns sent during the current month.
	PeriodMonth Period = "Month"

	// PeriodWeek lists campaigns sent during the current week.
	PeriodWeek Period = "Week"

	// PeriodYear lists campaigns sent during the current year.
	PeriodYear Period = "Year"
)

// Period is the campaign listing granularity accepted by the campaign resource.
type Period string

// Campaign is an entry of the campaign resource.
type Campaign struct {
	// CreatedAt is the creation timestamp, kept exactly as Mailjet formats it.
	CreatedAt string `json:"CreatedAt"`

	// FromName is the sender display name.
	FromName string `json:"FromName"`

	// ID is the campaign identifier, used as SourceID and CampaignID in statistics filters.
	ID int64 `json:"ID"`

	// SendStartAt is when sending started.
	SendStartAt string `json:"SendStartAt"`

	// Subject is the email subject line.
	Subject string `json:"Subject"`
}

// GeoStat is a per-country entry of the geostatistics resource.
type GeoStat struct {
	// ClickedCount is the number of clicks from the country.
	ClickedCount int64 `json:"ClickedCount"`

	// Country is the ISO country code.
	Country string `json:"Country"`

	// OpenedCount is the number of opens from the country.
	OpenedCount int64 `json:"OpenedCount"`
}

// LinkClick is an entry of the statistics/link-click resource.
type LinkClick struct {
	// ClickedEventsCount is the total number of clicks on the link.
	ClickedEventsCount int64 `json:"ClickedEventsCount"`

	// ClickedMessagesCount is the number of messages in which the link was clicked.
	ClickedMessagesCount int64 `json:"ClickedMessagesCount"`

	// PositionIndex is the position of the link in the HTML content.
	PositionIndex int64 `json:"PositionIndex"`

	// URL is the link target.
	URL string `json:"URL"`
}

// StatCounter is one time slice of the statcounters resource.
type StatCounter struct {
	EventClickDelay          float64 `json:"EventClickDelay"`
	EventClickedCount        int64   `json:"EventClickedCount"`
	EventOpenDelay           float64 `json:"EventOpenDelay"`
	EventOpenedCount         int64   `json:"EventOpenedCount"`
	MessageBlockedCount      int64   `json:"MessageBlockedCount"`
	MessageClickedCount      int64   `json:"MessageClickedCount"`
	MessageHardBouncedCount  int64   `json:"MessageHardBouncedCount"`
	MessageOpenedCount       int64   `json:"MessageOpenedCount"`
	MessageSentCount         int64   `json:"MessageSentCount"`
	MessageSoftBouncedCount  int64   `json:"MessageSoftBouncedCount"`
	MessageSpamCount         int64   `json:"MessageSpamCount"`
	MessageUnsubscribedCount int64   `json:"MessageUnsubscribedCount"`

	// Timeslice is the start of the slice, e.g. "2024-03-01T00:00:00Z".
	Timeslice string `json:"Timeslice"`
}

// UserAgentStat is an entry of the useragentstatistics resource.
type UserAgentStat struct {
	// Count is the total number of events from the user agent.
	Count int64 `json:"Count"`

	// DistinctCount is the number of distinct messages with an event from the user agent.
	DistinctCount int64 `json:"DistinctCount"`

	// Platform is the operating system or device family.
	Platform string `json:"Platform"`

	// UserAgent is the user agent description.
	UserAgent string `json:"UserAgent"`
}

// response is the envelope of every REST resource listing.
type response[T any] struct {
	// Count is the number of entries in Data.
	Count int `json:"Count"`

	// Data holds the entries.
	Data []T `json:"Data"`

	// Total is the number of entries matching the filters.
	Total int `json:"Total"`
}
