package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Email       string `gorm:"size:255;not null;unique"`
	Password    string `gorm:"size:128;not null"`
	Name        string `gorm:"size:255;not null"`
	IsActive    bool   `gorm:"not null"`
	IsStaff     bool   `gorm:"not null"`
	IsSuperuser bool   `gorm:"not null"`
}

// Attribute is the shared shape of tags and ingredients. Each row belongs to
// exactly one user and is reused by name within that user's scope.
type Attribute struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:255;not null;index"`
	UserID    uint   `gorm:"not null;index"`
	User      *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type Tag struct {
	Attribute
}

type Ingredient struct {
	Attribute
}

type Recipe struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint            `gorm:"not null;index"`
	User        *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Title       string          `gorm:"size:255;not null"`
	TimeMinutes int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Link        string          `gorm:"size:255"`
	Description string          `gorm:"type:text"`
	Image       string          `gorm:"size:255"`
	Tags        []Tag           `gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient    `gorm:"many2many:recipe_ingredients;"`
}

func (r Recipe) String() string {
	return r.Title
}

// AuthToken is the opaque bearer credential handed out by the token endpoint.
// A user holds at most one.
type AuthToken struct {
	Key       string `gorm:"primarykey;size:40"`
	UserID    uint   `gorm:"not null;uniqueIndex"`
	User      *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Tag{}, &Ingredient{}, &Recipe{}, &AuthToken{}}
}
