// Package domain defines the persistence models for orders, notifications,
// favorites and ratings. These types are mapped with GORM and form the core
// data layer of the ordering backend.
package domain

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
)

// Well-known order statuses. The status column is free-form: any other
// caller-supplied value is stored verbatim.
const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusDeclined  = "DECLINED"
	StatusCancelled = "CANCELLED"
)

// Order represents one placed order. The ID is assigned by the caller and is
// unique; creating a second order with the same ID is rejected by the store.
//
// Fields:
//   - ID: caller-supplied primary key.
//   - Name / Mobile: owner name and normalized owner identifier (indexed).
//   - Payment: payment method tag (e.g. "cod", "upi").
//   - PreOrder: scheduled order flag; DeliveryDate/DeliveryTime are set only
//     for pre-orders and are stored verbatim as supplied.
//   - Items: JSON object mapping item name to quantity.
//   - Status: current lifecycle status.
//   - CreatedAt: server-assigned creation time (indexed for newest-first lists).
type Order struct {
	ID           string    `json:"id"         gorm:"type:varchar(128);primaryKey"`
	Name         string    `json:"name"       gorm:"type:varchar(255)"`
	Mobile       string    `json:"mobile"     gorm:"type:varchar(32);index:idx_orders_mobile"`
	Payment      string    `json:"payment"    gorm:"type:varchar(64)"`
	PreOrder     bool      `json:"pre_order"  gorm:"not null;default:false"`
	DeliveryDate *string   `json:"delivery_date,omitempty" gorm:"type:varchar(64)"`
	DeliveryTime *string   `json:"delivery_time,omitempty" gorm:"type:varchar(64)"`
	Items        string    `json:"-"          gorm:"type:text;not null;default:'{}'"`
	Status       string    `json:"status"     gorm:"type:varchar(64);not null;default:'PENDING'"`
	CreatedAt    time.Time `json:"created_at" gorm:"index:idx_orders_created"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// ItemMap decodes the stored item content. Malformed or non-object content
// yields an empty map.
func (o Order) ItemMap() map[string]any {
	out, ok := DecodeItems(o.Items)
	if !ok {
		return map[string]any{}
	}
	return out
}

// DecodeItems parses raw as a single JSON object with numbers kept as
// json.Number. Anything else, including trailing data after the object,
// reports false.
func DecodeItems(raw string) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil || out == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return out, true
}

// Notification is one message delivered to a user. Only Read is mutable after
// creation.
//
// Fields:
//   - ID: autoincrement primary key.
//   - UserMobile: normalized recipient identifier (indexed).
//   - Message: free text.
//   - OrderID: originating order, if any.
//   - ETAMinutes: estimated delivery in minutes, if any.
//   - Read: read flag, false on creation.
type Notification struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserMobile string    `json:"-"           gorm:"type:varchar(32);not null;index:idx_notifications_user,priority:1"`
	Message    string    `json:"message"     gorm:"type:text;not null"`
	OrderID    *string   `json:"order_id"    gorm:"type:varchar(128)"`
	ETAMinutes *int      `json:"eta_minutes"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_notifications_user,priority:2"`
	Read       bool      `json:"read"        gorm:"not null;default:false"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// Favorite marks an item as a favorite of a user. The (user_mobile, item_name)
// pair is unique; inserting it twice is a no-op.
type Favorite struct {
	ID         int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserMobile string    `json:"user_mobile" gorm:"type:varchar(32);not null;uniqueIndex:ux_favorites_user_item,priority:1"`
	ItemName   string    `json:"item_name"  gorm:"type:varchar(255);not null;uniqueIndex:ux_favorites_user_item,priority:2"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// Rating is a 1..5 star review of a menu item.
type Rating struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserMobile string    `json:"user_mobile" gorm:"type:varchar(32);not null"`
	UserName   string    `json:"user_name"   gorm:"type:varchar(255)"`
	ItemName   string    `json:"item_name"   gorm:"type:varchar(255);not null;index:idx_ratings_item"`
	Rating     int       `json:"rating"      gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Review     string    `json:"review"      gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Rating.
func (Rating) TableName() string { return "ratings" }
