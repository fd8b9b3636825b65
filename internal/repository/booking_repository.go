package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber string     `gorm:"uniqueIndex;not null;size:20"`
	RequesterID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	ChargerID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	StartTime     time.Time  `gorm:"not null;index"`
	EndTime       time.Time  `gorm:"not null"`
	Status        string     `gorm:"not null;size:30;index"`
	CancelNote    string     `gorm:"size:500"`
	CancelledAt   *time.Time `gorm:""`
	CompletedAt   *time.Time `gorm:""`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of booking.Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRequesterID retrieves bookings made by a specific user with pagination.
func (r *GormBookingRepository) FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("requester_id = ?", requesterID), page, limit)
}

// FindByChargerID retrieves bookings for a specific charger with pagination.
func (r *GormBookingRepository) FindByChargerID(ctx context.Context, chargerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Where("charger_id = ?", chargerID), page, limit)
}

// FindActiveByChargerID retrieves every non-cancelled booking for a charger.
func (r *GormBookingRepository) FindActiveByChargerID(ctx context.Context, chargerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("charger_id = ? AND status <> ?", chargerID, string(bookingDomain.StatusCancelled)).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.WithContext(ctx), page, limit)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called before Update, so the row must still hold
	// the previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"cancel_note":  model.CancelNote,
			"cancelled_at": model.CancelledAt,
			"completed_at": model.CompletedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Delete removes a booking record.
func (r *GormBookingRepository) Delete(ctx context.Context, bk *bookingDomain.Booking) error {
	result := r.db.WithContext(ctx).Where("id = ?", bk.ID()).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	return nil
}

func (r *GormBookingRepository) findPage(ctx context.Context, query *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// --- Conversion helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RequesterID:   bk.RequesterID(),
		ChargerID:     bk.ChargerID(),
		StartTime:     bk.Slot().Start,
		EndTime:       bk.Slot().End,
		Status:        string(bk.Status()),
		CancelNote:    bk.CancelNote(),
		CancelledAt:   bk.CancelledAt(),
		CompletedAt:   bk.CompletedAt(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.RequesterID,
		m.ChargerID,
		bookingDomain.NewTimeSlot(m.StartTime, m.EndTime),
		status,
		m.CancelNote,
		m.CancelledAt,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
