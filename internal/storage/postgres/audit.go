package postgres

import (
	"context"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

// AuditRepository implements storage.AuditRepository on PostgreSQL.
type AuditRepository struct {
	q querier
}

var _ storage.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) InsertAuditRecord(ctx context.Context, record *storage.AuditRecord) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO audit_log
		 (id, company_id, user_id, action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.CompanyID, record.UserID, record.Action,
		record.EntityType, record.EntityID, record.Details, record.CreatedAt)
	return wrapError("insert_audit_record", err)
}

func (r *AuditRepository) ListAuditRecords(ctx context.Context, companyID, entityType, entityID string) ([]*storage.AuditRecord, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, company_id, user_id, action, entity_type, entity_id, details, created_at
		 FROM audit_log
		 WHERE company_id = $1 AND entity_type = $2 AND entity_id = $3
		 ORDER BY created_at`,
		companyID, entityType, entityID)
	if err != nil {
		return nil, wrapError("list_audit_records", err)
	}
	defer rows.Close()

	var out []*storage.AuditRecord
	for rows.Next() {
		var rec storage.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.UserID, &rec.Action,
			&rec.EntityType, &rec.EntityID, &rec.Details, &rec.CreatedAt); err != nil {
			return nil, wrapError("list_audit_records", err)
		}
		out = append(out, &rec)
	}
	return out, wrapError("list_audit_records", rows.Err())
}
