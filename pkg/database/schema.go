package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the appointment service
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	tables := []string{
		createPatientsTable,
		createDoctorsTable,
		createAppointmentsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createDoctorsIndexes,
		createAppointmentsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// SQL DDL statements for table creation.
// appointments.doctor_id carries no foreign key on purpose: deleting a
// doctor leaves a dangling reference that readers resolve to "Unassigned".
const (
	createPatientsTable = `
		CREATE TABLE IF NOT EXISTS patients (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255),
			protected BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createDoctorsTable = `
		CREATE TABLE IF NOT EXISTS doctors (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			specialization VARCHAR(100),
			protected BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createAppointmentsTable = `
		CREATE TABLE IF NOT EXISTS appointments (
			id VARCHAR(64) PRIMARY KEY,
			patient_id VARCHAR(64) NOT NULL REFERENCES patients(id),
			doctor_id VARCHAR(64),
			clinic_id VARCHAR(64) NOT NULL,
			clinic_name VARCHAR(100) NOT NULL DEFAULT '',
			date VARCHAR(10) NOT NULL,
			time VARCHAR(8) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			reason TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			CONSTRAINT appointments_doctor_status_check CHECK (
				(status = 'pending' AND doctor_id IS NULL)
				OR (status IN ('scheduled', 'confirmed', 'completed') AND doctor_id IS NOT NULL)
				OR status = 'cancelled'
			)
		);`

	createDoctorsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_doctors_email ON doctors(email);`

	createAppointmentsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments(patient_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_doctor_id ON appointments(doctor_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date, time);
		CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);`
)
