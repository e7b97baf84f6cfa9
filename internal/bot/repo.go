package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
)

// Repository manages driver-to-chat links for the bot bridge.
type Repository interface {
	FindByDriverID(ctx context.Context, driverID uuid.UUID) (*models.BotSession, error)
	Link(ctx context.Context, driverID uuid.UUID, chatID int64) (*models.BotSession, error)
	Unlink(ctx context.Context, driverID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a bot-sessions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByDriverID(ctx context.Context, driverID uuid.UUID) (*models.BotSession, error) {
	var link models.BotSession
	if err := r.db.WithContext(ctx).First(&link, "driver_id = ?", driverID).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) Link(ctx context.Context, driverID uuid.UUID, chatID int64) (*models.BotSession, error) {
	link := &models.BotSession{
		DriverID: driverID,
		ChatID:   chatID,
		LinkedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Assign(map[string]any{"chat_id": chatID, "linked_at": link.LinkedAt}).
		FirstOrCreate(link).Error
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *repository) Unlink(ctx context.Context, driverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Delete(&models.BotSession{})
	return res.RowsAffected, res.Error
}
