package workers

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessUsageWorker samples the CPU and memory of the relay process.
type ProcessUsageWorker struct {
	log            *slog.Logger
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewProcessUsageWorker(log *slog.Logger, telemetryChan chan event.Event, metricInterval time.Duration) *ProcessUsageWorker {
	return &ProcessUsageWorker{log: log, telemetryChan: telemetryChan, metricInterval: metricInterval}
}

func (w *ProcessUsageWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process sampling")
			return nil
		case <-ticker.C:
			usage, err := sample(p)
			if err != nil {
				w.log.Debug("Error while sampling process usage", "error", err)
				continue
			}
			select {
			case w.telemetryChan <- event.New(event.ProcessUsageType, usage):
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}

func sample(p *process.Process) (event.ProcessUsage, error) {
	cpu, err := p.CPUPercent()
	if err != nil {
		return event.ProcessUsage{}, err
	}
	ram, err := p.MemoryPercent()
	if err != nil {
		return event.ProcessUsage{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return event.ProcessUsage{}, err
	}
	return event.ProcessUsage{
		PID:           p.Pid,
		CPUPercent:    cpu,
		MemoryPercent: ram,
		RSSBytes:      mem.RSS,
		Goroutines:    runtime.NumGoroutine(),
	}, nil
}
