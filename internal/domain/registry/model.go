package registry

import "time"

// Patient is the registry's identity record. The MR number is assigned at
// first registration and never changes; re-registration with the same
// number corrects the remaining fields in place.
type Patient struct {
	MRNumber  string    `db:"mr_number" json:"mr_number"`
	Name      string    `db:"name" json:"name"`
	Age       int       `db:"age" json:"age"`
	Gender    string    `db:"gender" json:"gender"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
