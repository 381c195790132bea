package directory

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/cliniq/appointment-service/pkg/database"
	"github.com/cliniq/appointment-service/pkg/interfaces"
	"github.com/cliniq/appointment-service/pkg/logger"
	"github.com/cliniq/appointment-service/pkg/types"
)

// Repository implements the DirectoryStore interface on PostgreSQL
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new directory repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.DirectoryStore {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const doctorColumns = `id, name, email, specialization, protected, created_at, updated_at`
const patientColumns = `id, name, email, protected, created_at, updated_at`

// CreateDoctor inserts a new doctor directory entry
func (r *Repository) CreateDoctor(doc *types.Doctor) error {
	query := `
		INSERT INTO doctors (id, name, email, specialization, protected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		doc.ID,
		doc.Name,
		doc.Email,
		doc.Specialization,
		doc.Protected,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError("a doctor with this email already exists", map[string]interface{}{
				"email": doc.Email,
			})
		}
		r.logger.Error("Failed to create doctor: ", err)
		return types.NewStoreUnavailableError(err)
	}

	return nil
}

// GetDoctorByID retrieves a doctor by ID
func (r *Repository) GetDoctorByID(id string) (*types.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE id = $1`, doctorColumns)

	doc := &types.Doctor{}
	var specialization sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&doc.ID,
		&doc.Name,
		&doc.Email,
		&specialization,
		&doc.Protected,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("doctor", id)
		}
		r.logger.Error("Failed to get doctor: ", err)
		return nil, types.NewStoreUnavailableError(err)
	}

	doc.Specialization = specialization.String
	return doc, nil
}

// ListDoctors retrieves all doctor entries ordered by name
func (r *Repository) ListDoctors() ([]*types.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors ORDER BY name, id`, doctorColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list doctors: ", err)
		return nil, types.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	doctors := []*types.Doctor{}
	for rows.Next() {
		doc := &types.Doctor{}
		var specialization sql.NullString

		if err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.Email,
			&specialization,
			&doc.Protected,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, types.NewStoreUnavailableError(err)
		}

		doc.Specialization = specialization.String
		doctors = append(doctors, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, types.NewStoreUnavailableError(err)
	}

	return doctors, nil
}

// UpdateDoctor applies a partial update. Only the fields set in the patch
// are written.
func (r *Repository) UpdateDoctor(id string, patch *types.DoctorPatch) error {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	if patch.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *patch.Name)
		argIndex++
	}

	if patch.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, strings.ToLower(*patch.Email))
		argIndex++
	}

	if patch.Specialization != nil {
		setParts = append(setParts, fmt.Sprintf("specialization = $%d", argIndex))
		args = append(args, *patch.Specialization)
		argIndex++
	}

	if len(setParts) == 0 {
		return nil
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now().UTC())
	argIndex++

	query := fmt.Sprintf("UPDATE doctors SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIndex)
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError("a doctor with this email already exists", map[string]interface{}{
				"doctor_id": id,
			})
		}
		r.logger.Error("Failed to update doctor: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("doctor", id)
	}

	return nil
}

// DeleteDoctor removes a doctor entry. Appointments keep their doctor_id
// reference; display-time resolution handles the dangling case.
func (r *Repository) DeleteDoctor(id string) error {
	result, err := r.db.Exec(`DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete doctor: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("doctor", id)
	}

	return nil
}

// CreatePatient inserts a new patient directory entry
func (r *Repository) CreatePatient(p *types.Patient) error {
	query := `
		INSERT INTO patients (id, name, email, protected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		p.ID,
		p.Name,
		p.Email,
		p.Protected,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError("patient already registered", map[string]interface{}{
				"patient_id": p.ID,
			})
		}
		r.logger.Error("Failed to create patient: ", err)
		return types.NewStoreUnavailableError(err)
	}

	return nil
}

// GetPatientByID retrieves a patient by ID
func (r *Repository) GetPatientByID(id string) (*types.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1`, patientColumns)

	p := &types.Patient{}
	var email sql.NullString

	err := r.db.QueryRow(query, id).Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.Protected,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("patient", id)
		}
		r.logger.Error("Failed to get patient: ", err)
		return nil, types.NewStoreUnavailableError(err)
	}

	p.Email = email.String
	return p, nil
}

// ListPatients retrieves all patient entries ordered by name
func (r *Repository) ListPatients() ([]*types.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients ORDER BY name, id`, patientColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list patients: ", err)
		return nil, types.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	patients := []*types.Patient{}
	for rows.Next() {
		p := &types.Patient{}
		var email sql.NullString

		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&email,
			&p.Protected,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, types.NewStoreUnavailableError(err)
		}

		p.Email = email.String
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, types.NewStoreUnavailableError(err)
	}

	return patients, nil
}

// UpdatePatient applies a partial update. Only the fields set in the patch
// are written.
func (r *Repository) UpdatePatient(id string, patch *types.PatientPatch) error {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	if patch.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *patch.Name)
		argIndex++
	}

	if patch.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, strings.ToLower(*patch.Email))
		argIndex++
	}

	if len(setParts) == 0 {
		return nil
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now().UTC())
	argIndex++

	query := fmt.Sprintf("UPDATE patients SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIndex)
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		r.logger.Error("Failed to update patient: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("patient", id)
	}

	return nil
}

// DeletePatient removes a patient entry. Appointment rows reference
// patients, so a patient with booking history fails the delete.
func (r *Repository) DeletePatient(id string) error {
	result, err := r.db.Exec(`DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.NewConflictError("patient has appointment records", map[string]interface{}{
				"patient_id": id,
			})
		}
		r.logger.Error("Failed to delete patient: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError("patient", id)
	}

	return nil
}

// isUniqueViolation reports whether a database error is a unique
// constraint violation (Postgres error class 23505)
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

// isForeignKeyViolation reports whether a database error is a foreign key
// violation (Postgres error class 23503)
func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}
