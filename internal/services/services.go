// ABOUTME: Domain services over the clinic REST API
// ABOUTME: One method per backend operation, all sharing one client pipeline

package services

import (
	"fmt"

	"github.com/adeebazad/react-homoeo/internal/client"
)

// Services bundles every domain service built on one client
type Services struct {
	Auth         *AuthService
	Appointments *AppointmentService
	Patients     *PatientService
	Blog         *BlogService
}

// New creates all services over c
func New(c *client.Client) *Services {
	return &Services{
		Auth:         &AuthService{c: c},
		Appointments: &AppointmentService{c: c},
		Patients:     &PatientService{c: c},
		Blog:         &BlogService{c: c},
	}
}

func resource(prefix string, id int64, action string) string {
	if action == "" {
		return fmt.Sprintf("%s%d/", prefix, id)
	}
	return fmt.Sprintf("%s%d/%s/", prefix, id, action)
}
