// ABOUTME: Medical record and record update request endpoints
// ABOUTME: Patients read their own record; doctors read and edit all records

package services

import (
	"context"

	"github.com/adeebazad/react-homoeo/internal/client"
	"github.com/adeebazad/react-homoeo/internal/models"
)

const (
	recordPath  = "/api/patients/record/"
	recordsPath = "/api/patients/records/"
	updatesPath = "/api/patients/updates/"
)

// PatientService wraps /api/patients/
type PatientService struct {
	c *client.Client
}

// Record returns the current patient's record(s)
func (s *PatientService) Record(ctx context.Context) ([]models.PatientRecord, error) {
	var list models.List[models.PatientRecord]
	if err := s.c.Get(ctx, recordPath, nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// RecordByPatient returns the record of one patient (doctor only)
func (s *PatientService) RecordByPatient(ctx context.Context, patientID int64) (*models.PatientRecord, error) {
	var r models.PatientRecord
	if err := s.c.Get(ctx, resource(recordPath, patientID, ""), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// AllRecords lists every patient record (doctor only)
func (s *PatientService) AllRecords(ctx context.Context) ([]models.PatientRecord, error) {
	var list models.List[models.PatientRecord]
	if err := s.c.Get(ctx, recordsPath, nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// UpdateRecord patches record fields keyed by wire name
func (s *PatientService) UpdateRecord(ctx context.Context, id int64, fields map[string]string) (*models.PatientRecord, error) {
	var r models.PatientRecord
	if err := s.c.Patch(ctx, resource(recordPath, id, ""), fields, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PatientService) CreateUpdateRequest(ctx context.Context, in models.UpdateRequestInput) (*models.UpdateRequest, error) {
	var u models.UpdateRequest
	if err := s.c.Post(ctx, updatesPath, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PatientService) UpdateRequests(ctx context.Context) ([]models.UpdateRequest, error) {
	var list models.List[models.UpdateRequest]
	if err := s.c.Get(ctx, updatesPath, nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (s *PatientService) ApproveUpdateRequest(ctx context.Context, id int64) error {
	return s.c.Post(ctx, resource(updatesPath, id, "approve"), struct{}{}, nil)
}

func (s *PatientService) RejectUpdateRequest(ctx context.Context, id int64) error {
	return s.c.Post(ctx, resource(updatesPath, id, "reject"), struct{}{}, nil)
}
