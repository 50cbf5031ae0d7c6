package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"galapagosrental/internal/db"

	"github.com/lib/pq"
)

// AdminRepository manages back-office content: email templates and the gallery.
type AdminRepository interface {
	ListTemplates(ctx context.Context, templateType string, activeOnly bool) ([]db.EmailTemplate, error)
	GetTemplate(ctx context.Context, id int) (*db.EmailTemplate, error)
	CreateTemplate(ctx context.Context, t *db.EmailTemplate) error
	UpdateTemplate(ctx context.Context, t *db.EmailTemplate) error
	DeleteTemplate(ctx context.Context, id int) error

	ListGallery(ctx context.Context, activeOnly bool) ([]db.GalleryImage, error)
	CreateGalleryImage(ctx context.Context, img *db.GalleryImage) error
	DeleteGalleryImage(ctx context.Context, id int) error
}

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{db: db}
}

const templateColumns = `id, name, template_type, subject, recipients, html_published, active, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (db.EmailTemplate, error) {
	var t db.EmailTemplate
	err := row.Scan(&t.ID, &t.Name, &t.TemplateType, &t.Subject, pq.Array(&t.Recipients),
		&t.HTMLPublished, &t.Active, &t.UpdatedAt)
	return t, err
}

func (r *adminRepository) ListTemplates(ctx context.Context, templateType string, activeOnly bool) ([]db.EmailTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if templateType != "" {
		query += " AND template_type = $" + strconv.Itoa(idx)
		args = append(args, templateType)
		idx++
	}
	if activeOnly {
		query += " AND active = true"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying templates: %w", err)
	}
	defer rows.Close()

	templates := []db.EmailTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *adminRepository) GetTemplate(ctx context.Context, id int) (*db.EmailTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching template %d: %w", id, err)
	}
	return &t, nil
}

func (r *adminRepository) CreateTemplate(ctx context.Context, t *db.EmailTemplate) error {
	query := `INSERT INTO email_templates (name, template_type, subject, recipients, html_published, active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, updated_at`
	err := r.db.QueryRowContext(ctx, query, t.Name, t.TemplateType, t.Subject, pq.Array(t.Recipients),
		t.HTMLPublished, t.Active).Scan(&t.ID, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting template: %w", err)
	}
	return nil
}

func (r *adminRepository) UpdateTemplate(ctx context.Context, t *db.EmailTemplate) error {
	query := `UPDATE email_templates SET name = $1, template_type = $2, subject = $3, recipients = $4,
		html_published = $5, active = $6, updated_at = NOW() WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, t.Name, t.TemplateType, t.Subject, pq.Array(t.Recipients),
		t.HTMLPublished, t.Active, t.ID)
	if err != nil {
		return fmt.Errorf("error updating template %d: %w", t.ID, err)
	}
	return expectOneRow(res)
}

func (r *adminRepository) DeleteTemplate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting template %d: %w", id, err)
	}
	return expectOneRow(res)
}

func (r *adminRepository) ListGallery(ctx context.Context, activeOnly bool) ([]db.GalleryImage, error) {
	query := `SELECT id, url, COALESCE(caption, ''), sort_order, active FROM gallery_images`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying gallery: %w", err)
	}
	defer rows.Close()

	images := []db.GalleryImage{}
	for rows.Next() {
		var img db.GalleryImage
		if err := rows.Scan(&img.ID, &img.URL, &img.Caption, &img.SortOrder, &img.Active); err != nil {
			return nil, fmt.Errorf("error scanning gallery image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *adminRepository) CreateGalleryImage(ctx context.Context, img *db.GalleryImage) error {
	query := `INSERT INTO gallery_images (url, caption, sort_order, active) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, img.URL, img.Caption, img.SortOrder, img.Active).Scan(&img.ID); err != nil {
		return fmt.Errorf("error inserting gallery image: %w", err)
	}
	return nil
}

func (r *adminRepository) DeleteGalleryImage(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting gallery image %d: %w", id, err)
	}
	return expectOneRow(res)
}
