package serviceorder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
)

const boardSelect = `
SELECT so.id AS order_id, so.number AS order_number, so.status, so.entry_date,
       EXTRACT(DAY FROM now() - so.entry_date)::int AS days_in_shop,
       so.mechanic, so.client_report,
       c.name AS client_name, c.phone AS client_phone,
       v.plate, v.model, v.brand, v.year,
       CASE so.status
           WHEN 'OPEN' THEN 10
           WHEN 'QUOTATION' THEN 25
           WHEN 'APPROVED' THEN 40
           WHEN 'IN_PROGRESS' THEN 60
           WHEN 'WAITING_PARTS' THEN 50
           ELSE 0
       END AS progress,
       CASE
           WHEN so.status = 'WAITING_PARTS' THEN 'WAITING'
           WHEN so.status IN ('APPROVED', 'IN_PROGRESS') THEN 'AVAILABLE'
           ELSE 'PENDING'
       END AS parts_status
FROM service_orders so
JOIN clients c ON c.id = so.client_id
JOIN vehicles v ON v.id = so.vehicle_id
WHERE so.status IN (?)
ORDER BY so.entry_date ASC, so.id ASC`

const boardStats = `
SELECT COUNT(*) FILTER (WHERE status = 'OPEN') AS open,
       COUNT(*) FILTER (WHERE status = 'QUOTATION') AS quotation,
       COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
       COUNT(*) FILTER (WHERE status = 'IN_PROGRESS') AS in_progress,
       COUNT(*) FILTER (WHERE status = 'WAITING_PARTS') AS waiting_parts,
       COUNT(*) FILTER (WHERE status IN (?)) AS total_active,
       COUNT(*) FILTER (WHERE status = 'FINISHED' AND exit_date >= ?) AS finished_in_window,
       (AVG(EXTRACT(EPOCH FROM exit_date - entry_date))
           FILTER (WHERE status = 'FINISHED' AND exit_date >= ?) / 3600)::float8 AS avg_turnaround_hours
FROM service_orders`

func activeStatusArgs() []string {
	out := make([]string, len(entity.ActiveStatuses))
	for i, s := range entity.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

// BoardVehicles lists vehicles whose order is still active, oldest entry first.
func (r *Repository) BoardVehicles(ctx context.Context) ([]dto.BoardVehicle, error) {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.BoardVehicles")
	defer span.End()

	rows := make([]dto.BoardVehicle, 0)
	if err := r.reader.NewRaw(boardSelect, bun.In(activeStatusArgs())).Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// BoardStats counts active orders per status and averages the turnaround of
// orders finished since since.
func (r *Repository) BoardStats(ctx context.Context, since time.Time) (dto.BoardStats, error) {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.BoardStats")
	defer span.End()

	var stats dto.BoardStats
	if err := r.reader.NewRaw(boardStats, bun.In(activeStatusArgs()), since, since).Scan(ctx, &stats); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return dto.BoardStats{}, err
	}
	return stats, nil
}
