package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("service not found")

// Service is one purchasable legal service from the firm's catalog.
type Service struct {
	ID          string  `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	PriceCents  int     `gorm:"not null" json:"price_cents"`
	Currency    string  `gorm:"type:char(3);not null" json:"currency"`
	Active      bool    `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Service) TableName() string { return "services" }

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Get returns an active service by id. Inactive services are not
// purchasable and read as not found.
func (r *Repo) Get(ctx context.Context, id string) (Service, error) {
	var s Service
	err := r.db.WithContext(ctx).First(&s, "id = ? AND active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Service{}, ErrNotFound
	}
	if err != nil {
		return Service{}, err
	}
	return s, nil
}

func (r *Repo) List(ctx context.Context) ([]Service, error) {
	var out []Service
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
