package models

import "time"

// DateLayout is the wire format of calendar dates such as Contact.Birth.
const DateLayout = "2006-01-02"

// Contact is an address book entry owned by exactly one user.
type Contact struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	Firstname         string    `json:"firstname" gorm:"index;not null"`
	Lastname          string    `json:"lastname" gorm:"index;not null"`
	Email             string    `json:"email" gorm:"not null;uniqueIndex:idx_contacts_owner_email,priority:2"`
	Phone             string    `json:"phone" gorm:"index"`
	Birth             time.Time `json:"birth" gorm:"type:date;not null"`
	AdditionalDetails *string   `json:"additional_details" gorm:"column:additional_details"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	UserID            int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_contacts_owner_email,priority:1"`
	User              *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for the Contact model.
func (Contact) TableName() string {
	return "contacts"
}

// IsOwnedBy reports whether the contact belongs to the given user.
func (c *Contact) IsOwnedBy(userID int64) bool {
	return c.UserID == userID
}
