package appointments

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cliniq/appointment-service/pkg/database"
	"github.com/cliniq/appointment-service/pkg/interfaces"
	"github.com/cliniq/appointment-service/pkg/logger"
	"github.com/cliniq/appointment-service/pkg/types"
)

// Repository implements the AppointmentStore interface on PostgreSQL.
// Every mutation is a single guarded write keyed on the caller's last
// observed state, so a record that changed between read and write fails
// with Conflict instead of being silently overwritten.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new appointment repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.AppointmentStore {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const appointmentColumns = `id, patient_id, doctor_id, clinic_id, clinic_name, date, time, status, reason, notes, created_at, updated_at`

// CreateAppointment inserts a new appointment record
func (r *Repository) CreateAppointment(apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, clinic_id, clinic_name, date, time,
			status, reason, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	var doctorID sql.NullString
	if apt.DoctorID != nil {
		doctorID = sql.NullString{String: *apt.DoctorID, Valid: true}
	}

	_, err := r.db.Exec(query,
		apt.ID,
		apt.PatientID,
		doctorID,
		apt.ClinicID,
		apt.ClinicName,
		apt.Date,
		apt.Time,
		apt.Status,
		apt.Reason,
		apt.Notes,
		apt.CreatedAt,
		apt.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create appointment: ", err)
		return types.NewStoreUnavailableError(err)
	}

	r.logger.WithField("appointment_id", apt.ID).Info("Created appointment")
	return nil
}

// GetAppointmentByID retrieves an appointment by ID
func (r *Repository) GetAppointmentByID(id string) (*types.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)

	apt, err := r.scanAppointment(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("appointment", id)
		}
		r.logger.Error("Failed to get appointment: ", err)
		return nil, types.NewStoreUnavailableError(err)
	}

	return apt, nil
}

// ListAppointments retrieves appointments matching the filters, ordered by
// date, then time, then id
func (r *Repository) ListAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE 1=1`, appointmentColumns)

	args := []interface{}{}
	argIndex := 1

	if filters.PatientID != "" {
		query += fmt.Sprintf(" AND patient_id = $%d", argIndex)
		args = append(args, filters.PatientID)
		argIndex++
	}

	if filters.DoctorID != "" {
		query += fmt.Sprintf(" AND doctor_id = $%d", argIndex)
		args = append(args, filters.DoctorID)
		argIndex++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filters.Status))
		argIndex++
	}

	if filters.FromDate != "" {
		query += fmt.Sprintf(" AND date >= $%d", argIndex)
		args = append(args, filters.FromDate)
		argIndex++
	}

	if filters.ToDate != "" {
		query += fmt.Sprintf(" AND date <= $%d", argIndex)
		args = append(args, filters.ToDate)
		argIndex++
	}

	query += " ORDER BY date ASC, time ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list appointments: ", err)
		return nil, types.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	appointments := []*types.Appointment{}
	for rows.Next() {
		apt, err := r.scanAppointment(rows)
		if err != nil {
			r.logger.Error("Failed to scan appointment: ", err)
			return nil, types.NewStoreUnavailableError(err)
		}
		appointments = append(appointments, apt)
	}

	if err = rows.Err(); err != nil {
		return nil, types.NewStoreUnavailableError(err)
	}

	return appointments, nil
}

// AssignDoctor sets the doctor and moves the appointment from pending to
// scheduled in one guarded write. The guard requires doctor_id to still be
// null; a matched zero rows result is classified by re-reading the record.
func (r *Repository) AssignDoctor(id, doctorID string) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, status = $2, updated_at = $3
		WHERE id = $4 AND doctor_id IS NULL AND status = $5`

	result, err := r.db.Exec(query, doctorID, types.StatusScheduled, time.Now(), id, types.StatusPending)
	if err != nil {
		r.logger.Error("Failed to assign doctor: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}

	if rowsAffected == 0 {
		return r.classifyAssignFailure(id)
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": id,
		"doctor_id":      doctorID,
	}).Info("Assigned doctor to appointment")
	return nil
}

// classifyAssignFailure distinguishes why a guarded assignment matched
// nothing: unknown id, doctor already set, or a concurrent status change.
func (r *Repository) classifyAssignFailure(id string) error {
	apt, err := r.GetAppointmentByID(id)
	if err != nil {
		return err
	}
	if apt.DoctorID != nil {
		return types.NewAlreadyAssignedError(id, *apt.DoctorID)
	}
	return types.NewConflictError("appointment was modified concurrently", map[string]interface{}{
		"appointment_id": id,
	})
}

// UpdateStatus transitions the appointment from the observed status to the
// new one in one guarded write keyed on the observed status.
func (r *Repository) UpdateStatus(id string, from, to types.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.Exec(query, to, time.Now(), id, from)
	if err != nil {
		r.logger.Error("Failed to update appointment status: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}

	if rowsAffected == 0 {
		// The record exists with a different status, or is gone.
		if _, err := r.GetAppointmentByID(id); err != nil {
			return err
		}
		return types.NewConflictError("appointment was modified concurrently", map[string]interface{}{
			"appointment_id": id,
		})
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": id,
		"from":           string(from),
		"to":             string(to),
	}).Info("Updated appointment status")
	return nil
}

// DeleteAppointment removes an appointment record
func (r *Repository) DeleteAppointment(id string) error {
	result, err := r.db.Exec(`DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete appointment: ", err)
		return types.NewStoreUnavailableError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreUnavailableError(err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError("appointment", id)
	}

	r.logger.WithField("appointment_id", id).Info("Deleted appointment")
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanAppointment(row rowScanner) (*types.Appointment, error) {
	apt := &types.Appointment{}
	var doctorID sql.NullString

	err := row.Scan(
		&apt.ID,
		&apt.PatientID,
		&doctorID,
		&apt.ClinicID,
		&apt.ClinicName,
		&apt.Date,
		&apt.Time,
		&apt.Status,
		&apt.Reason,
		&apt.Notes,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if doctorID.Valid {
		apt.DoctorID = &doctorID.String
	}

	return apt, nil
}
