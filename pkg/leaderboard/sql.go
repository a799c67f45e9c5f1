package leaderboard

import (
	"context"
	"time"

	"github.com/campfire-gg/arcade/pkg/game/variant"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Entity struct {
	ID uint `gorm:"primaryKey"`
}

// A game variant e.g. arena or combat
type GameType struct {
	Entity
	Name string `gorm:"size:16"`
}

// One accepted score submission. The live leaderboard only keeps the
// maximum; the archive keeps the history.
type Submission struct {
	Entity

	TypeID  uint   `gorm:"not null"`
	Name    string `gorm:"size:32"`
	Score   int
	Created time.Time

	Type GameType
}

func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&GameType{})
	db.AutoMigrate(&Submission{})

	return db, nil
}

// Archive records every submission the store accepts.
type Archive struct {
	db *gorm.DB
}

func NewArchive(path string) (*Archive, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) getType(ctx context.Context, name string) (*GameType, error) {
	var type_ GameType
	err := a.db.WithContext(ctx).Where(GameType{
		Name: name,
	}).First(&type_).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err == nil {
		return &type_, nil
	}

	// it doesn't exist
	type_ = GameType{
		Name: name,
	}

	err = a.db.WithContext(ctx).Create(&type_).Error
	if err != nil {
		return nil, err
	}

	return &type_, nil
}

func (a *Archive) Record(ctx context.Context, v variant.ID, name string, score int) error {
	type_, err := a.getType(ctx, v.String())
	if err != nil {
		return err
	}

	return a.db.WithContext(ctx).Create(&Submission{
		TypeID:  type_.ID,
		Name:    name,
		Score:   score,
		Created: time.Now(),
	}).Error
}
