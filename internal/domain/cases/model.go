package cases

// Case is the read-only view of a legal case owned by the case management
// service. Only the fields the payment flow needs are mapped.
type Case struct {
	ID       uint   `gorm:"primaryKey"`
	Title    string `gorm:"not null"`
	ClientID uint   `gorm:"not null;index"`
	LawyerID uint   `gorm:"not null;index"`
}
