package httpapi

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

var startTime = time.Now()

type debugInfo struct {
	PID        int32   `json:"pid"`
	UptimeSecs float64 `json:"uptimeSeconds"`
	Goroutines int     `json:"goroutines"`
	GoVersion  string  `json:"goVersion"`

	CPUPercent float64 `json:"cpuPercent,omitempty"`
	MemoryRSS  uint64  `json:"memoryRssBytes,omitempty"`
	NumThreads int32   `json:"threads,omitempty"`

	Hostname string `json:"hostname,omitempty"`
	Platform string `json:"platform,omitempty"`

	Counts debugCounts `json:"counts"`
}

type debugCounts struct {
	MenuItems  int `json:"menuItems"`
	Categories int `json:"categories"`
	Invoices   int `json:"invoices"`
	Users      int `json:"users"`
}

// debug reports process health and store counts. Host probes are best
// effort; fields they fill are simply absent when a probe fails.
func (h *handler) debug(w http.ResponseWriter, r *http.Request) {
	info := debugInfo{
		PID:        int32(os.Getpid()),
		UptimeSecs: time.Since(startTime).Seconds(),
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
	}

	if proc, err := process.NewProcess(info.PID); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			info.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			info.MemoryRSS = mem.RSS
		}
		if threads, err := proc.NumThreads(); err == nil {
			info.NumThreads = threads
		}
	}

	if hostInfo, err := host.Info(); err == nil {
		info.Hostname = hostInfo.Hostname
		info.Platform = hostInfo.Platform
	}

	ctx := r.Context()
	if items, err := h.app.Catalog.ListMenu(ctx, false); err == nil {
		info.Counts.MenuItems = len(items)
	}
	if cats, err := h.app.Catalog.ListCategories(ctx); err == nil {
		info.Counts.Categories = len(cats)
	}
	if invs, err := h.app.Invoices.List(ctx); err == nil {
		info.Counts.Invoices = len(invs)
	}
	if operators, err := h.app.Users.List(ctx); err == nil {
		info.Counts.Users = len(operators)
	}

	writeJSON(w, http.StatusOK, info)
}
