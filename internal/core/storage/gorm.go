package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionModel 一行存一个集合的完整 JSON
type CollectionModel struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Data      []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CollectionModel) TableName() string { return "collections" }

type GormProvider struct{ db *gorm.DB }

func NewGormProvider(db *gorm.DB, autoMigrate bool) (*GormProvider, error) {
	if autoMigrate {
		if err := db.AutoMigrate(&CollectionModel{}); err != nil {
			return nil, err
		}
	}
	return &GormProvider{db: db}, nil
}

func (p *GormProvider) Load(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var m CollectionModel
	err := p.db.WithContext(ctx).First(&m, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return m.Data, nil
}

// Save upsert：存在则覆盖 data
func (p *GormProvider) Save(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	m := CollectionModel{Name: name, Data: data, UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&m).Error
}
