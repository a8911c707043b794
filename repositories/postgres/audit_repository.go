package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, org_id, actor_id, action, resource_type, resource_id, details, request_id, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	q := querier(ctx, r.db)
	_, err := q.ExecContext(ctx, query,
		log.ID,
		log.OrgID,
		nullString(log.ActorID),
		log.Action,
		log.ResourceType,
		log.ResourceID,
		nullJSON(log.Details),
		nullString(log.RequestID),
		log.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// GetByResource retrieves the audit trail of a resource, oldest first
func (r *AuditRepository) GetByResource(ctx context.Context, resourceID uuid.UUID) ([]*models.AuditLog, error) {
	query := `
		SELECT id, org_id, actor_id, action, resource_type, resource_id, details, request_id, timestamp
		FROM audit_logs
		WHERE resource_id = $1
		ORDER BY timestamp ASC
	`

	q := querier(ctx, r.db)
	rows, err := q.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log := &models.AuditLog{}
		var actorID, requestID sql.NullString
		var details []byte

		err := rows.Scan(
			&log.ID,
			&log.OrgID,
			&actorID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&details,
			&requestID,
			&log.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		log.ActorID = actorID.String
		log.RequestID = requestID.String
		log.Details = details
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return logs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullJSON maps an empty payload to NULL so the JSONB column never receives invalid input
func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
