package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wealthnest/engine/internal/database"
	"github.com/wealthnest/engine/internal/scheduler"
)

// SystemHandlers handles monitoring and operations endpoints
type SystemHandlers struct {
	log        zerolog.Logger
	dataDir    string
	catalogDB  *database.DB
	universeDB *database.DB
	scheduler  *scheduler.Scheduler

	// Set after job registration in main.go
	universeSyncJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, catalogDB, universeDB *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:        log.With().Str("component", "system_handlers").Logger(),
		dataDir:    dataDir,
		catalogDB:  catalogDB,
		universeDB: universeDB,
		scheduler:  sched,
	}
}

// SetUniverseSyncJob registers the sync job for manual triggering.
// Called after jobs are registered in main.go.
func (h *SystemHandlers) SetUniverseSyncJob(job scheduler.Job) {
	h.universeSyncJob = job
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	PersonaCount int     `json:"persona_count"`
	FundCount    int     `json:"fund_count"`
	LastSync     string  `json:"last_sync,omitempty"`
	CPUPercent   float64 `json:"cpu_percent"`
	RAMPercent   float64 `json:"ram_percent"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// DiskUsageResponse represents disk usage statistics
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
}

// HandleHealth reports liveness of both databases.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := map[string]string{}

	for _, db := range []*database.DB{h.catalogDB, h.universeDB} {
		if err := db.HealthCheck(ctx); err != nil {
			checks[db.Name()] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks[db.Name()] = "ok"
		}
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"databases": checks,
		"time":      time.Now().Format(time.RFC3339),
	})
}

// HandleSystemStatus returns catalog/universe counts and host load
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	var personaCount int
	err := h.catalogDB.QueryRow(`SELECT COUNT(*) FROM personas WHERE is_active = 1`).Scan(&personaCount)
	if err != nil && err != sql.ErrNoRows {
		h.log.Error().Err(err).Msg("Failed to query personas")
	}

	var fundCount int
	var lastSync sql.NullInt64
	err = h.universeDB.QueryRow(`SELECT COUNT(*) FROM funds`).Scan(&fundCount)
	if err != nil && err != sql.ErrNoRows {
		h.log.Error().Err(err).Msg("Failed to query funds")
	}
	// finished_at is stored as a Unix timestamp
	err = h.universeDB.QueryRow(`
		SELECT MAX(finished_at) FROM sync_runs WHERE status = 'completed'
	`).Scan(&lastSync)
	if err != nil && err != sql.ErrNoRows {
		h.log.Error().Err(err).Msg("Failed to query sync runs")
	}

	syncTime := ""
	if lastSync.Valid {
		syncTime = time.Unix(lastSync.Int64, 0).Format("2006-01-02 15:04")
	}

	cpuPct, ramPct := h.getSystemStats()

	h.writeJSON(w, http.StatusOK, SystemStatusResponse{
		PersonaCount: personaCount,
		FundCount:    fundCount,
		LastSync:     syncTime,
		CPUPercent:   cpuPct,
		RAMPercent:   ramPct,
	})
}

// HandleDatabaseStats returns size statistics for both databases
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := []DBInfo{}
	totalSizeMB := 0.0

	for _, db := range []*database.DB{h.catalogDB, h.universeDB} {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("db", db.Name()).Msg("Failed to get database stats")
			continue
		}
		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalSizeMB += sizeMB
		databases = append(databases, DBInfo{
			Name:      db.Name(),
			Path:      db.Path(),
			SizeMB:    sizeMB,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
		})
	}

	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleDiskUsage returns data directory disk usage
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	h.writeJSON(w, http.StatusOK, DiskUsageResponse{
		DataDirMB: h.getDirSize(h.dataDir),
	})
}

// HandleTriggerUniverseSync runs the universe sync job immediately
// POST /api/v1/system/jobs/universe-sync
func (h *SystemHandlers) HandleTriggerUniverseSync(w http.ResponseWriter, r *http.Request) {
	if h.universeSyncJob == nil {
		h.log.Warn().Msg("Universe sync job not registered yet")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "Universe sync job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual universe sync triggered")

	if err := h.scheduler.RunNow(h.universeSyncJob); err != nil {
		h.log.Error().Err(err).Msg("Failed to run universe sync")
		h.writeJSON(w, http.StatusBadGateway, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Universe sync completed",
	})
}

// getSystemStats reads CPU and RAM usage percentages. Uses a 100ms
// sampling window so the status endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
