package models

import (
	"time"
)

type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Title string `gorm:"size:99;uniqueIndex;not null"  json:"title"`
	Slug  string `gorm:"size:120;uniqueIndex;not null" json:"slug"`
}

type Product struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	Title             string    `gorm:"size:99;not null"            json:"title"`
	Model             string    `gorm:"size:99"                     json:"model,omitempty"`
	YearOfProduction  uint      `json:"year_of_production,omitempty"`
	ProductionCountry string    `gorm:"size:100"                    json:"production_country,omitempty"`
	Price             int64     `gorm:"not null"                    json:"price"`
	CountAvailable    uint      `gorm:"not null;default:0"          json:"count_available"`
	CategoryID        uint      `gorm:"index;not null"              json:"category_id"`
	Category          *Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

// BasketItem is one line of a user's basket. One row per (user, product);
// quantity never reaches 0, the row is deleted instead.
type BasketItem struct {
	ID        uint      `gorm:"primaryKey"                                   json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_basket_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_basket_user_product" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE"                  json:"product,omitempty"`
	Quantity  uint      `gorm:"not null;default:1;check:quantity>0"          json:"quantity"`
	AddedAt   time.Time `gorm:"not null;index"                               json:"added_at"`
}

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status change is allowed.
// Cancelled is re-enterable so a repeated cancel can update the reason.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch next {
	case OrderStatusConfirmed:
		return s == OrderStatusNew
	case OrderStatusCancelled:
		return s == OrderStatusNew || s == OrderStatusConfirmed || s == OrderStatusCancelled
	default:
		return false
	}
}

type Order struct {
	ID              uint        `gorm:"primaryKey"                  json:"id"`
	UserID          uint        `gorm:"index;not null"              json:"user_id"`
	Status          OrderStatus `gorm:"size:16;not null"            json:"status"`
	CancelledReason string      `gorm:"size:255"                    json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem snapshots quantity and unit price at checkout time, so later
// price changes never touch placed orders. The product reference is
// protected: a product cannot be deleted while order items point at it.
type OrderItem struct {
	ID        uint     `gorm:"primaryKey"                          json:"id"`
	OrderID   uint     `gorm:"index;not null"                      json:"order_id"`
	ProductID uint     `gorm:"not null"                            json:"product_id"`
	Product   *Product `gorm:"constraint:OnDelete:RESTRICT"        json:"-"`
	Quantity  uint     `gorm:"not null;default:1;check:quantity>0" json:"quantity"`
	Price     int64    `gorm:"not null"                            json:"price"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName    string `gorm:"size:150"                      json:"first_name,omitempty"`
	LastName     string `gorm:"size:150"                      json:"last_name,omitempty"`
	PasswordHash string `gorm:"not null"                      json:"-"`
	Role         string `gorm:"not null;default:user"         json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
