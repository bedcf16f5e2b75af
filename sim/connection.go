package sim

// SendError marks a failed send. It is back-pressure, not a bug: the sender
// holds the message and retries on a later tick.
type SendError struct{}

// NewSendError creates a SendError.
func NewSendError() *SendError {
	return new(SendError)
}

// A Connection delivers messages between the ports plugged into it.
type Connection interface {
	Named
	Hookable

	PlugIn(port Port)
	NotifyAvailable(port Port)
	NotifySend()
}
