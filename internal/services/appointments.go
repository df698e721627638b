// ABOUTME: Appointment endpoints including the doctor workflow actions
// ABOUTME: Approve, reject, cancel and complete are POSTs with an empty body

package services

import (
	"context"
	"net/url"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/models"
)

const (
	doctorsPath      = "/api/accounts/doctors/"
	appointmentsPath = "/api/appointments/"
)

// AppointmentService wraps /api/appointments/
type AppointmentService struct {
	c *client.Client
}

// Doctors lists every doctor, unpaginated
func (s *AppointmentService) Doctors(ctx context.Context) ([]models.User, error) {
	var list models.List[models.User]
	if err := s.c.Get(ctx, doctorsPath, url.Values{"no_page": {"true"}}, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// List returns the appointments visible to the current user
func (s *AppointmentService) List(ctx context.Context) ([]models.Appointment, error) {
	var list models.List[models.Appointment]
	if err := s.c.Get(ctx, appointmentsPath, nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (s *AppointmentService) Create(ctx context.Context, in models.AppointmentInput) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.c.Post(ctx, appointmentsPath, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AppointmentService) Update(ctx context.Context, id int64, in models.AppointmentUpdate) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.c.Patch(ctx, resource(appointmentsPath, id, ""), in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, resource(appointmentsPath, id, ""))
}

func (s *AppointmentService) Approve(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.action(ctx, id, "approve")
}

func (s *AppointmentService) Reject(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.action(ctx, id, "reject")
}

func (s *AppointmentService) Cancel(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.action(ctx, id, "cancel")
}

func (s *AppointmentService) Complete(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.action(ctx, id, "complete")
}

func (s *AppointmentService) action(ctx context.Context, id int64, name string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.c.Post(ctx, resource(appointmentsPath, id, name), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
