// internal/domain/partner/entity.go
package partner

import "time"

// Supplier is a company goods are purchased from
type Supplier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:100;index" json:"name"`
	Country      string    `gorm:"size:100;index" json:"country"`
	ContactName  string    `gorm:"size:100" json:"contact_name"`
	ContactEmail string    `gorm:"size:254" json:"contact_email"`
	ContactPhone string    `gorm:"size:20" json:"contact_phone"`
	PaymentTerms string    `gorm:"size:100" json:"payment_terms"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Supplier) TableName() string {
	return "suppliers"
}

// Customer is a party goods are sold to
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:100;index" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:254" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Customer) TableName() string {
	return "customers"
}
