package email

const (
	subjectOrderConfirmationFmt = "Conferma ordine %s - %s"
)
