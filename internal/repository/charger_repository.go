package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	chargerDomain "github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

// ChargerModel is the GORM model for the chargers table.
type ChargerModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConnectorType string    `gorm:"not null;size:30"`
	PowerKW       float64   `gorm:"not null"`
	Status        string    `gorm:"not null;size:30;index"`
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ChargerModel) TableName() string {
	return "chargers"
}

// GormChargerRepository is the GORM-based implementation of charger.Repository.
type GormChargerRepository struct {
	db *gorm.DB
}

// NewGormChargerRepository creates a new GormChargerRepository.
func NewGormChargerRepository(db *gorm.DB) *GormChargerRepository {
	return &GormChargerRepository{db: db}
}

// FindByID retrieves a charger by its unique identifier.
func (r *GormChargerRepository) FindByID(ctx context.Context, id uuid.UUID) (*chargerDomain.Charger, error) {
	var model ChargerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Charger", id.String())
		}
		return nil, fmt.Errorf("failed to find charger by ID: %w", err)
	}
	return toDomainCharger(&model)
}

// List retrieves all chargers with pagination.
func (r *GormChargerRepository) List(ctx context.Context, page, limit int) ([]*chargerDomain.Charger, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ChargerModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count chargers: %w", err)
	}

	var models []ChargerModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list chargers: %w", err)
	}

	chargers := make([]*chargerDomain.Charger, len(models))
	for i, m := range models {
		ch, err := toDomainCharger(&m)
		if err != nil {
			return nil, 0, err
		}
		chargers[i] = ch
	}
	return chargers, total, nil
}

// Save persists a new charger.
func (r *GormChargerRepository) Save(ctx context.Context, ch *chargerDomain.Charger) error {
	model := toChargerModel(ch)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save charger: %w", err)
	}
	return nil
}

// Update persists changes to an existing charger with optimistic locking.
func (r *GormChargerRepository) Update(ctx context.Context, ch *chargerDomain.Charger) error {
	model := toChargerModel(ch)

	expectedVersion := ch.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ChargerModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update charger: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("charger was modified by another transaction")
	}
	return nil
}

// --- Conversion helpers ---

func toChargerModel(ch *chargerDomain.Charger) *ChargerModel {
	return &ChargerModel{
		ID:            ch.ID(),
		ConnectorType: ch.ConnectorType(),
		PowerKW:       ch.PowerKW(),
		Status:        string(ch.Status()),
		Version:       ch.Version(),
		CreatedAt:     ch.CreatedAt(),
		UpdatedAt:     ch.UpdatedAt(),
	}
}

func toDomainCharger(m *ChargerModel) (*chargerDomain.Charger, error) {
	status, err := chargerDomain.ParseChargerStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return chargerDomain.ReconstructCharger(
		m.ID,
		m.ConnectorType,
		m.PowerKW,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
