package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/dberrors"
	"github.com/yigit/kebele/internal/pkg/logger"
)

var applicationColumns = []string{
	"id", "user_id", "application_type", "status",
	"full_name", "dob", "gender", "resident_address", "phone_number",
	"emergency_contact_name", "emergency_contact_phone", "blood_group",
	"existing_id_number", "reason_for_renewal",
	"child_full_name", "place_of_birth", "father_full_name", "mother_full_name",
	"photo", "residence_proof", "old_id_card", "hospital_proof", "parent_id", "birth_certificate_photo",
	"created_at", "updated_at",
}

// ApplicationRepository handles database operations for applications
type ApplicationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID, &app.UserID, &app.ApplicationType, &app.Status,
		&app.FullName, &app.Dob, &app.Gender, &app.ResidentAddress, &app.PhoneNumber,
		&app.EmergencyContactName, &app.EmergencyContactPhone, &app.BloodGroup,
		&app.ExistingIDNumber, &app.ReasonForRenewal,
		&app.ChildFullName, &app.PlaceOfBirth, &app.FatherFullName, &app.MotherFullName,
		&app.Photo, &app.ResidenceProof, &app.OldIDCard, &app.HospitalProof, &app.ParentID, &app.BirthCertificatePhoto,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// writeMap returns the mutable columns of app keyed by column name
func writeMap(app *models.Application) map[string]interface{} {
	return map[string]interface{}{
		"application_type":        app.ApplicationType,
		"status":                  app.Status,
		"full_name":               app.FullName,
		"dob":                     app.Dob,
		"gender":                  app.Gender,
		"resident_address":        app.ResidentAddress,
		"phone_number":            app.PhoneNumber,
		"emergency_contact_name":  app.EmergencyContactName,
		"emergency_contact_phone": app.EmergencyContactPhone,
		"blood_group":             app.BloodGroup,
		"existing_id_number":      app.ExistingIDNumber,
		"reason_for_renewal":      app.ReasonForRenewal,
		"child_full_name":         app.ChildFullName,
		"place_of_birth":          app.PlaceOfBirth,
		"father_full_name":        app.FatherFullName,
		"mother_full_name":        app.MotherFullName,
		"photo":                   app.Photo,
		"residence_proof":         app.ResidenceProof,
		"old_id_card":             app.OldIDCard,
		"hospital_proof":          app.HospitalProof,
		"parent_id":               app.ParentID,
		"birth_certificate_photo": app.BirthCertificatePhoto,
	}
}

func mapApplicationWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, dberrors.ApplicationsOnePendingUser):
		return apperrors.ErrPendingApplication
	case dberrors.IsForeignKeyError(err, dberrors.ApplicationsUserFK):
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Create inserts app and fills in its ID and timestamps
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	now := time.Now()
	values := writeMap(app)
	values["user_id"] = app.UserID
	values["created_at"] = now
	values["updated_at"] = now

	sql, args, err := r.sb.Insert("applications").
		SetMap(values).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create application SQL")
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if mapped := mapApplicationWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("userID", app.UserID).Msg("Error executing create application query")
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	sql, args, err := r.sb.Select(applicationColumns...).
		From("applications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error scanning application row")
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}
	return app, nil
}

// GetByAttachmentKey finds the application holding key in any attachment
// column. Unknown keys give ErrFileNotFound.
func (r *ApplicationRepository) GetByAttachmentKey(ctx context.Context, key string) (*models.Application, error) {
	anyColumn := squirrel.Or{}
	for _, slot := range models.Attachments {
		anyColumn = append(anyColumn, squirrel.Eq{string(slot): key})
	}

	sql, args, err := r.sb.Select(applicationColumns...).
		From("applications").
		Where(anyColumn).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment lookup query: %w", err)
	}

	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFileNotFound
		}
		return nil, fmt.Errorf("error looking up attachment owner: %w", err)
	}
	return app, nil
}

// List returns one page of applications, newest first. A non-nil ownerID
// restricts the listing to that user's records.
func (r *ApplicationRepository) List(ctx context.Context, ownerID *int64, offset, limit uint64) ([]*models.Application, int64, error) {
	filter := squirrel.And{}
	if ownerID != nil {
		filter = append(filter, squirrel.Eq{"user_id": *ownerID})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("applications").Where(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count applications query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting applications: %w", err)
	}

	sql, args, err := r.sb.Select(applicationColumns...).
		From("applications").
		Where(filter).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing list applications query: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0, limit)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning application row: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating application rows: %w", err)
	}

	return apps, total, nil
}

// HasPending reports whether the user already holds a PENDING application
func (r *ApplicationRepository) HasPending(ctx context.Context, userID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("applications").
		Where(squirrel.Eq{"user_id": userID, "status": models.StatusPending}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build pending check query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking pending applications: %w", err)
	}
	return exists, nil
}

// Update writes every mutable column of app and refreshes UpdatedAt
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	values := writeMap(app)
	values["updated_at"] = time.Now()

	sql, args, err := r.sb.Update("applications").
		SetMap(values).
		Where(squirrel.Eq{"id": app.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update application SQL")
		return fmt.Errorf("failed to build update application query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&app.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrApplicationNotFound
		}
		if mapped := mapApplicationWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("applicationID", app.ID).Msg("Error executing update application query")
		return fmt.Errorf("error updating application: %w", err)
	}
	return nil
}

// Delete removes an application by ID
func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("applications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete application query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error executing delete application query")
		return fmt.Errorf("error deleting application: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// AttachmentKeysByUser returns every stored attachment key of a user's
// applications, used to clean up files when the account is removed.
func (r *ApplicationRepository) AttachmentKeysByUser(ctx context.Context, userID int64) ([]string, error) {
	sql, args, err := r.sb.Select(applicationColumns...).
		From("applications").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment keys query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying attachment keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning application row: %w", err)
		}
		for _, slot := range models.Attachments {
			if key := app.AttachmentKey(slot); key != nil {
				keys = append(keys, *key)
			}
		}
	}
	return keys, rows.Err()
}
