package location

import "time"

// Page is the stored metadata for one grid page.
type Page struct {
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Binding is one occupied grid slot.
type Binding struct {
	Page      int    `json:"page"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
	ControlID string `json:"control_id"`
}
