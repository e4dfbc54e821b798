package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username        string `gorm:"unique;not null"          json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PasswordHash    string `gorm:"not null"                 json:"-"`
	Salt            string `gorm:"not null"                 json:"-"`
	Age             int    `json:"age"`
	Role            string `gorm:"not null;default:user"    json:"role"`
	PasswordChanged bool   `gorm:"default:false"            json:"password_changed"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"unique;not null"          json:"name"`
	Price       float64 `gorm:"not null"                 json:"price"`
	QRCodePath  string  `json:"qr_code_path"`
	Listed      bool    `gorm:"default:false"            json:"listed"`
	Description string  `json:"description"`
	CategoryID  *uint   `gorm:"index"                    json:"category_id"`
	ImagePath   *string `json:"image_path"`
	Stock       uint    `gorm:"default:0"                json:"stock"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                                json:"id"`
	UserID    uint `gorm:"index;not null;uniqueIndex:idx_cart_line"  json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_line"        json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                json:"quantity"`
}

// CartLine is a cart row joined to its product.
type CartLine struct {
	Product
	Quantity uint `json:"quantity"`
}

type Discount struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string     `gorm:"unique;not null"          json:"name"`
	Percentage uint       `gorm:"not null"                 json:"percentage"`
	QRCodePath string     `json:"qr_code_path"`
	Uses       uint       `gorm:"default:0"                json:"uses"`
	LastUsed   *time.Time `json:"last_used"`
	Active     bool       `gorm:"default:true"             json:"active"`
}

// UserAction is an append-only audit row for customer activity.
type UserAction struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index"                    json:"created_at"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Action    string    `gorm:"not null"                 json:"action"`
	Details   string    `json:"details"`
	Status    string    `gorm:"not null"                 json:"status"`
}

// AdminAction additionally records the target the admin acted on.
type AdminAction struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt  time.Time `gorm:"index"                    json:"created_at"`
	AdminID    uint      `gorm:"index;not null"           json:"admin_id"`
	Action     string    `gorm:"not null"                 json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *uint     `json:"target_id"`
	Details    string    `json:"details"`
	Status     string    `gorm:"not null"                 json:"status"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"unique;not null"      json:"token"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

// Setting is a persisted key/value pair, replacing the desktop app's
// first-run configuration file.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null"   json:"value"`
}
