package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Profiles() ProfileRepository
	Orders() OrderRepository
	Attachments() AttachmentRepository
	Payments() PaymentRepository
	PasswordResets() PasswordResetRepository
}
