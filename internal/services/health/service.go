// Package health reports liveness, readiness and host system state.
package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/webatelier/platform/internal/cache"
	"github.com/webatelier/platform/internal/logging"
)

// Status is the readiness report.
type Status struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

// SystemInfo is a snapshot of the host for the ops dashboard.
type SystemInfo struct {
	Hostname      string  `json:"hostname"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
}

// Service checks dependencies and reports system state.
type Service struct {
	db    *sql.DB
	cache *cache.Cache
	log   *logging.Logger
}

// New constructs a health service. db and cache may be nil when the
// dependency is not configured.
func New(db *sql.DB, c *cache.Cache, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("health")
	}
	return &Service{db: db, cache: c, log: log}
}

// Check pings every configured dependency.
func (s *Service) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := Status{Healthy: true, Checks: map[string]string{}}

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			status.Healthy = false
			status.Checks["database"] = err.Error()
		} else {
			status.Checks["database"] = "ok"
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			// Redis is an accelerator, not a dependency readiness gates on.
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}

// System reports host CPU, memory and uptime.
func (s *Service) System(ctx context.Context) (SystemInfo, error) {
	info := SystemInfo{}

	hostInfo, err := host.InfoWithContext(ctx)
	if err == nil {
		info.Hostname = hostInfo.Hostname
		info.UptimeSeconds = hostInfo.Uptime
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		info.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryPercent = vm.UsedPercent
		info.MemoryUsedMB = vm.Used / (1 << 20)
	}

	return info, nil
}
