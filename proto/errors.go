package proto

import "fmt"

var (
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrMessageTooLong  = fmt.Errorf("message too long")
	ErrEmptyMessage    = fmt.Errorf("message has no content")
	ErrSendCooldown    = fmt.Errorf("send cooldown in effect")
	ErrFileTooLarge    = fmt.Errorf("file too large")
	ErrMalformedEvent  = fmt.Errorf("malformed event")
	ErrViewerClosed    = fmt.Errorf("media viewer not open")
)
