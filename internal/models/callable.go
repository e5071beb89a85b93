package models

// Acknowledgement is the success result returned to callable clients.
type Acknowledgement struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
