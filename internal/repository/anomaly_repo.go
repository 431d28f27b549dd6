package repository

import (
	"fundify/internal/models"

	"gorm.io/gorm"
)

// PaymentAnomalyRepository stores confirmed payments that could not be
// recorded, for manual reconciliation.
type PaymentAnomalyRepository struct {
	db *gorm.DB
}

func NewPaymentAnomalyRepository(db *gorm.DB) *PaymentAnomalyRepository {
	return &PaymentAnomalyRepository{db: db}
}

func (r *PaymentAnomalyRepository) Create(a *models.PaymentAnomaly) error {
	return r.db.Create(a).Error
}

func (r *PaymentAnomalyRepository) Unresolved() ([]models.PaymentAnomaly, error) {
	var out []models.PaymentAnomaly
	err := r.db.Where("resolved = ?", false).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *PaymentAnomalyRepository) MarkResolved(id uint) error {
	return r.db.Model(&models.PaymentAnomaly{}).Where("id = ?", id).Update("resolved", true).Error
}
