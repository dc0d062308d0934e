package notify

import "github.com/monodebug/attachnotify/internal/domain"

// Notification is an Attach or Detach command with its boolean argument.
type Notification = domain.Notification

// Attach returns the notification sent when a debugger attaches.
func Attach(startPlay bool) Notification { return domain.Attach(startPlay) }

// Detach returns the notification sent when a debugger detaches.
func Detach(stopPlay bool) Notification { return domain.Detach(stopPlay) }

// ParseNotification parses "cmd:<Name>;value:<bool>" text.
func ParseNotification(text string) (Notification, error) {
	return domain.ParseNotification(text)
}
