package models

// LiveConfig is the process-wide configuration the administrator edits while
// the event is running.
type LiveConfig struct {
	PublicURL     string `json:"publicUrl" yaml:"public_url"`
	AutoApprove   bool   `json:"autoApprove" yaml:"auto_approve"`
	ShowQROverlay bool   `json:"showQrOverlay" yaml:"show_qr_overlay"`
}
