package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
)

// MaterialService handles lesson files tutors attach to appointments.
type MaterialService struct {
	materialRepo *repository.MaterialRepository
	apptRepo     *repository.AppointmentRepository
	storage      StorageService
	notifier     *Notifier
}

func NewMaterialService(
	materialRepo *repository.MaterialRepository,
	apptRepo *repository.AppointmentRepository,
	storage StorageService,
	notifier *Notifier,
) *MaterialService {
	return &MaterialService{
		materialRepo: materialRepo,
		apptRepo:     apptRepo,
		storage:      storage,
		notifier:     notifier,
	}
}

func (s *MaterialService) Upload(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	apptID uuid.UUID,
	title string,
	description *string,
	file multipart.File,
	filename string,
) (*models.Material, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	title = strings.TrimSpace(title)
	if title == "" || filename == "" {
		return nil, ErrInvalidInput
	}

	appointment, err := s.apptRepo.GetByID(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if appointment.TutorUID != actorUID {
		return nil, ErrForbidden
	}

	storedName := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(filename))
	fileURL, err := s.storage.UploadFile(ctx, file, storedName, "materials/"+apptID.String())
	if err != nil {
		return nil, err
	}

	material := &models.Material{
		Partition:     partition,
		AppointmentID: apptID,
		TutorUID:      actorUID,
		Title:         title,
		Description:   description,
		FileURL:       fileURL,
	}
	if err := s.materialRepo.Create(ctx, material); err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("materials", "create", material,
		appointment.TutorUID.String(), appointment.PupilUID.String())
	return material, nil
}

// List returns an appointment's materials with short-lived download links.
func (s *MaterialService) List(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	apptID uuid.UUID,
) ([]models.Material, error) {
	appointment, err := s.apptRepo.GetByID(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if !isAppointmentParty(actorUID, appointment) && actorRole != models.RoleSupervisor {
		return nil, ErrForbidden
	}

	materials, err := s.materialRepo.ListByAppointment(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return materials, nil
	}
	for i := range materials {
		if signed, err := s.storage.GetSignedURL(ctx, materials[i].FileURL); err == nil {
			materials[i].FileURL = signed
		}
	}
	return materials, nil
}

func (s *MaterialService) Delete(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	materialID uuid.UUID,
) error {
	if s.storage == nil {
		return ErrStorageUnavailable
	}
	material, err := s.materialRepo.GetByID(ctx, partition, materialID)
	if err != nil {
		return err
	}
	if material.TutorUID != actorUID {
		return ErrForbidden
	}

	if err := s.storage.DeleteFile(ctx, material.FileURL); err != nil {
		return err
	}
	return s.materialRepo.Delete(ctx, partition, materialID)
}
