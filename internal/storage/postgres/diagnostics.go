package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// Diagnostics reads PostgreSQL statistics views for the admin diagnostics endpoint
type Diagnostics struct {
	db  *gorm.DB
	log *log.Logger
}

// NewDiagnostics creates a diagnostics reader
func NewDiagnostics(db *gorm.DB) *Diagnostics {
	return &Diagnostics{
		db:  db,
		log: logger.Repository("diagnostics"),
	}
}

// Report is the diagnostics payload
type Report struct {
	Pool        *DatabaseMetrics `json:"pool"`
	Connections *ConnectionStats `json:"connections,omitempty"`
	Tables      []TableStats     `json:"tables"`
	Indexes     []IndexUsage     `json:"indexes"`
	Hints       []Hint           `json:"hints"`
	CollectedAt time.Time        `json:"collected_at"`
}

// TableStats represents table statistics
type TableStats struct {
	TableName    string     `json:"table_name"`
	LiveRows     int64      `json:"live_rows"`
	DeadRows     int64      `json:"dead_rows"`
	TableSize    string     `json:"table_size"`
	IndexSize    string     `json:"index_size"`
	LastAnalyzed *time.Time `json:"last_analyzed"`
}

// IndexUsage represents index usage statistics
type IndexUsage struct {
	TableName  string  `json:"table_name"`
	IndexName  string  `json:"index_name"`
	IndexScans int64   `json:"index_scans"`
	TableScans int64   `json:"table_scans"`
	Efficiency float64 `json:"efficiency"`
}

// ConnectionStats represents server-side connection statistics
type ConnectionStats struct {
	TotalConnections   int     `json:"total_connections"`
	ActiveConnections  int     `json:"active_connections"`
	IdleConnections    int     `json:"idle_connections"`
	MaxConnections     int     `json:"max_connections"`
	ConnectionsPercent float64 `json:"connections_percent"`
}

// Hint is a maintenance suggestion derived from the statistics
type Hint struct {
	Table      string `json:"table,omitempty"`
	Operation  string `json:"operation"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// Collect gathers every section. Sections the server refuses are logged and left empty.
func (d *Diagnostics) Collect(ctx context.Context) (*Report, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	d.log.Debug("Collecting database diagnostics...")

	report := &Report{
		Pool:        GetDatabaseMetrics(d.db),
		CollectedAt: time.Now().UTC(),
	}

	if tables, err := d.tableStats(ctx); err != nil {
		d.log.Warn("Failed to get table stats", "error", err)
	} else {
		report.Tables = tables
	}

	if indexes, err := d.indexUsage(ctx); err != nil {
		d.log.Warn("Failed to get index usage", "error", err)
	} else {
		report.Indexes = indexes
	}

	if conns, err := d.connectionStats(ctx); err != nil {
		d.log.Warn("Failed to get connection stats", "error", err)
	} else {
		report.Connections = conns
	}

	report.Hints = hints(report)

	d.log.Info("Database diagnostics collected",
		"tables", len(report.Tables),
		"indexes", len(report.Indexes),
		"hints", len(report.Hints))
	return report, nil
}

func (d *Diagnostics) tableStats(ctx context.Context) ([]TableStats, error) {
	var stats []TableStats
	err := d.db.WithContext(ctx).Raw(`
		SELECT
			relname AS table_name,
			n_live_tup AS live_rows,
			n_dead_tup AS dead_rows,
			pg_size_pretty(pg_total_relation_size(relid)) AS table_size,
			pg_size_pretty(pg_indexes_size(relid)) AS index_size,
			GREATEST(last_analyze, last_autoanalyze) AS last_analyzed
		FROM pg_stat_user_tables
		ORDER BY pg_total_relation_size(relid) DESC
	`).Scan(&stats).Error
	return stats, err
}

func (d *Diagnostics) indexUsage(ctx context.Context) ([]IndexUsage, error) {
	var usage []IndexUsage
	err := d.db.WithContext(ctx).Raw(`
		SELECT
			put.relname AS table_name,
			pui.indexrelname AS index_name,
			pui.idx_scan AS index_scans,
			put.seq_scan AS table_scans,
			CASE
				WHEN pui.idx_scan + put.seq_scan = 0 THEN 0
				ELSE ROUND((pui.idx_scan::numeric / (pui.idx_scan + put.seq_scan)) * 100, 2)
			END AS efficiency
		FROM pg_stat_user_indexes pui
		JOIN pg_stat_user_tables put ON pui.relid = put.relid
		ORDER BY efficiency ASC, index_scans DESC
	`).Scan(&usage).Error
	return usage, err
}

func (d *Diagnostics) connectionStats(ctx context.Context) (*ConnectionStats, error) {
	var stats ConnectionStats

	row := d.db.WithContext(ctx).Raw(`
		SELECT
			count(*),
			count(*) FILTER (WHERE state = 'active'),
			count(*) FILTER (WHERE state = 'idle'),
			(SELECT setting::int FROM pg_settings WHERE name = 'max_connections')
		FROM pg_stat_activity
		WHERE datname = current_database()
	`).Row()
	if err := row.Scan(&stats.TotalConnections, &stats.ActiveConnections, &stats.IdleConnections, &stats.MaxConnections); err != nil {
		return nil, err
	}

	if stats.MaxConnections > 0 {
		stats.ConnectionsPercent = float64(stats.TotalConnections) / float64(stats.MaxConnections) * 100
	}
	return &stats, nil
}

func hints(r *Report) []Hint {
	out := []Hint{}

	for _, t := range r.Tables {
		if t.LastAnalyzed == nil || time.Since(*t.LastAnalyzed) > 7*24*time.Hour {
			out = append(out, Hint{
				Table:      t.TableName,
				Operation:  "ANALYZE",
				Suggestion: fmt.Sprintf("Table '%s' hasn't been analyzed recently", t.TableName),
				Priority:   "Medium",
			})
		}
		if t.LiveRows > 0 && t.DeadRows > t.LiveRows/5 {
			out = append(out, Hint{
				Table:      t.TableName,
				Operation:  "VACUUM",
				Suggestion: fmt.Sprintf("Table '%s' has %d dead rows", t.TableName, t.DeadRows),
				Priority:   "Low",
			})
		}
	}

	for _, idx := range r.Indexes {
		if idx.IndexScans == 0 && idx.TableScans > 1000 {
			out = append(out, Hint{
				Table:      idx.TableName,
				Operation:  "DROP_INDEX",
				Suggestion: fmt.Sprintf("Index '%s' is never used", idx.IndexName),
				Priority:   "Low",
			})
		}
	}

	if r.Connections != nil && r.Connections.ConnectionsPercent > 80 {
		out = append(out, Hint{
			Operation:  "CONNECTION_POOL",
			Suggestion: fmt.Sprintf("Connection usage is high (%.2f%%)", r.Connections.ConnectionsPercent),
			Priority:   "High",
		})
	}
	return out
}
