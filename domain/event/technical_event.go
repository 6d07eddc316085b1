package event

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	ProcessUsageType        Type = "PROCESS_USAGE"
)

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// ProcessUsage is a sample of the relay process resource consumption.
type ProcessUsage struct {
	PID           int32
	CPUPercent    float64
	MemoryPercent float32
	RSSBytes      uint64
	Goroutines    int
}
