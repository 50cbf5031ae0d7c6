package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"galapagosrental/internal/db"
	apperrors "galapagosrental/internal/errors"
	"galapagosrental/internal/repository"
)

var templateTypes = map[string]bool{
	db.TemplateTypeCustomer:      true,
	db.TemplateTypeBusinessOwner: true,
	db.TemplateTypeSupplier:      true,
	db.TemplateTypeReview:        true,
}

// AdminService manages email templates and the gallery.
type AdminService struct {
	adminRepo repository.AdminRepository
}

func NewAdminService(adminRepo repository.AdminRepository) *AdminService {
	return &AdminService{adminRepo: adminRepo}
}

func (s *AdminService) ListTemplates(ctx context.Context, templateType string) ([]db.EmailTemplate, error) {
	return s.adminRepo.ListTemplates(ctx, templateType, false)
}

func (s *AdminService) CreateTemplate(ctx context.Context, t *db.EmailTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	return s.adminRepo.CreateTemplate(ctx, t)
}

func (s *AdminService) UpdateTemplate(ctx context.Context, t *db.EmailTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	return notFound(s.adminRepo.UpdateTemplate(ctx, t), "template not found")
}

func (s *AdminService) DeleteTemplate(ctx context.Context, id int) error {
	return notFound(s.adminRepo.DeleteTemplate(ctx, id), "template not found")
}

func (s *AdminService) AddGalleryImage(ctx context.Context, img *db.GalleryImage) error {
	u, err := url.Parse(img.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.BadRequest("image url must be absolute")
	}
	return s.adminRepo.CreateGalleryImage(ctx, img)
}

func (s *AdminService) DeleteGalleryImage(ctx context.Context, id int) error {
	return notFound(s.adminRepo.DeleteGalleryImage(ctx, id), "image not found")
}

func validateTemplate(t *db.EmailTemplate) error {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Subject) == "" {
		return apperrors.BadRequest("name and subject are required")
	}
	if !templateTypes[t.TemplateType] {
		return apperrors.BadRequest("unknown template type " + t.TemplateType)
	}
	recipients := t.Recipients[:0]
	for _, r := range t.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	t.Recipients = recipients
	return nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msg)
	}
	return err
}
