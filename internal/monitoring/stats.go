// Package monitoring collects host and database statistics for the
// operational stats endpoint.
package monitoring

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type Collector struct {
	db      *pgxpool.Pool
	started time.Time
}

type SystemStats struct {
	Uptime          string  `json:"uptime"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	MemoryUsed      string  `json:"memory_used"`
	MemoryTotal     string  `json:"memory_total"`
	DiskPercent     float64 `json:"disk_percent"`
	DiskUsed        string  `json:"disk_used"`
	DiskTotal       string  `json:"disk_total"`
	DBTotalConns    int32   `json:"db_total_connections"`
	DBIdleConns     int32   `json:"db_idle_connections"`
	DBAcquiredConns int32   `json:"db_acquired_connections"`
}

func NewCollector(db *pgxpool.Pool) *Collector {
	return &Collector{db: db, started: time.Now()}
}

// Collect is best effort: a probe that fails leaves its fields zeroed.
func (c *Collector) Collect() SystemStats {
	stats := SystemStats{
		Uptime: time.Since(c.started).Round(time.Second).String(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsed = formatBytes(vm.Used)
		stats.MemoryTotal = formatBytes(vm.Total)
	}

	if du, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = du.UsedPercent
		stats.DiskUsed = formatBytes(du.Used)
		stats.DiskTotal = formatBytes(du.Total)
	}

	if c.db != nil {
		pool := c.db.Stat()
		stats.DBTotalConns = pool.TotalConns()
		stats.DBIdleConns = pool.IdleConns()
		stats.DBAcquiredConns = pool.AcquiredConns()
	}

	return stats
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
