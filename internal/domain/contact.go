package domain

import "time"

// ContactStatus is the handling state of a contact request.
type ContactStatus string

const (
	ContactPending    ContactStatus = "pending"
	ContactInProgress ContactStatus = "in-progress"
	ContactCompleted  ContactStatus = "completed"
	ContactCancelled  ContactStatus = "cancelled"
)

// ContactStatuses lists every valid status.
var ContactStatuses = []ContactStatus{ContactPending, ContactInProgress, ContactCompleted, ContactCancelled}

// IsValid reports whether s is one of the known statuses.
func (s ContactStatus) IsValid() bool {
	for _, v := range ContactStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Contact is a request submitted through the public contact form.
//
// At most one contact per email is accepted inside the duplicate window; the
// check is done by the service before insert, so the composite
// (email, created_at) index serves that lookup and is not unique.
type Contact struct {
	ID               string        `json:"id"                         gorm:"type:char(36);primaryKey"`
	Name             string        `json:"name"                       gorm:"type:varchar(100);not null"`
	Email            string        `json:"email"                      gorm:"type:varchar(320);not null;index:idx_contacts_email_created,priority:1"`
	Phone            string        `json:"phone"                      gorm:"type:varchar(20);not null"`
	RequestedService *string       `json:"requestedService,omitempty" gorm:"type:varchar(200)"`
	Notes            *string       `json:"notes,omitempty"            gorm:"type:varchar(1000)"`
	Status           ContactStatus `json:"status"                     gorm:"type:varchar(16);not null;index:idx_contacts_status;check:status IN ('pending','in-progress','completed','cancelled')"`
	IsRead           bool          `json:"isRead"                     gorm:"not null;index:idx_contacts_read"`
	CreatedAt        time.Time     `json:"createdAt"                  gorm:"autoCreateTime:false;index:idx_contacts_email_created,priority:2;index:idx_contacts_created"`
	UpdatedAt        time.Time     `json:"updatedAt"                  gorm:"autoUpdateTime:false"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }
