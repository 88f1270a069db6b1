package notification

type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	Unread        int64          `json:"unread"`
	Total         int64          `json:"total"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}
