//go:generate go run go.uber.org/mock/mockgen -source=handlers.go -destination=../../mocks/mock_handlers.go -package=mocks
package event

// Handler Each kind of event has his own handler
// Based on the Chain of responsibility pattern
type Handler interface {
	Handle(event Event)
}

// Recorder receives measurements from the handlers and from the delivery path.
type Recorder interface {
	WorkerRestarted(workerName string)
	ChannelUsage(channelName string, length, capacity int)
	ProcessUsage(cpuPercent float64, rssBytes uint64, goroutines int)
	ConnectionOpened()
	ConnectionClosed()
	OnlineIdentities(count int)
	MessageRouted(delivery string)
	MessageRejected(code string)
	OutboundDropped()
	PresenceDropped()
	MessageCensored(language string)
}
