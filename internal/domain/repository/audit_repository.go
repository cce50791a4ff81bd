package repository

import "github.com/mairie-digitale/tresorerie-api/internal/domain/entity"

// AuditRepository est le puits du journal d'audit, en ajout seul.
type AuditRepository interface {
	Append(e *entity.AuditEntry) error
}
