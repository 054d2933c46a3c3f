package model

// Profile is owned by the signup flow; this service only reads it.
type Profile struct {
	ID        string  `gorm:"primaryKey;type:text" json:"id"`
	CompanyID *string `gorm:"type:text;index" json:"company_id,omitempty"`
	Email     *string `gorm:"type:text" json:"email,omitempty"`
	FullName  *string `gorm:"type:text" json:"full_name,omitempty"`
	Role      *string `gorm:"type:text" json:"role,omitempty"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
