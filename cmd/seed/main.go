package main

import (
	"context"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/cliniq/appointment-service/internal/appointments"
	"github.com/cliniq/appointment-service/internal/directory"
	"github.com/cliniq/appointment-service/pkg/config"
	"github.com/cliniq/appointment-service/pkg/database"
	"github.com/cliniq/appointment-service/pkg/logger"
	"github.com/cliniq/appointment-service/pkg/types"
)

// seed provisions the schema, the protected demo identities, a small
// doctor roster, and a couple of appointments so a fresh environment is
// immediately usable.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.CreateSchema(ctx); err != nil {
		logger.Fatalf("Failed to create schema: %v", err)
	}
	logger.Info("Schema ready")

	docs := directory.NewRepository(db, logger)
	apts := appointments.NewRepository(db, logger)

	now := time.Now().UTC()

	// Protected demo identities. Their emails are also pinned in the
	// directory.protected_emails config default, so they stay immutable
	// even if the protected flag is lost on re-import.
	demoPatient := &types.Patient{
		ID:        "patient-demo",
		Name:      "Demo Patient",
		Email:     "patient@example.com",
		Protected: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := docs.CreatePatient(demoPatient); err != nil && !types.IsErrorType(err, types.ErrorTypeConflict) {
		logger.Fatalf("Failed to seed demo patient: %v", err)
	}

	demoDoctor := &types.Doctor{
		ID:        "doctor-demo",
		Name:      "Demo Doctor",
		Email:     "doctor@example.com",
		Protected: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := docs.CreateDoctor(demoDoctor); err != nil && !types.IsErrorType(err, types.ErrorTypeConflict) {
		logger.Fatalf("Failed to seed demo doctor: %v", err)
	}

	// Named roster doctors
	roster := []*types.Doctor{
		{ID: uuid.New().String(), Name: "Dr. Smith", Email: "dr.smith@cliniq.local", Specialization: "Cardiology"},
		{ID: uuid.New().String(), Name: "Dr. Lee", Email: "dr.lee@cliniq.local", Specialization: "Dermatology"},
	}

	// Filler doctors so list views have something to page through
	specializations := []string{"Pediatrics", "Orthopedics", "Neurology", "General Practice"}
	for i := 0; i < 4; i++ {
		roster = append(roster, &types.Doctor{
			ID:             uuid.New().String(),
			Name:           "Dr. " + gofakeit.LastName(),
			Email:          gofakeit.Email(),
			Specialization: specializations[i%len(specializations)],
		})
	}

	for _, doc := range roster {
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if err := docs.CreateDoctor(doc); err != nil {
			if types.IsErrorType(err, types.ErrorTypeConflict) {
				continue
			}
			logger.Fatalf("Failed to seed doctor %s: %v", doc.Name, err)
		}
		logger.Infof("Seeded doctor %s (%s)", doc.Name, doc.Specialization)
	}

	// Filler patients
	for i := 0; i < 5; i++ {
		p := &types.Patient{
			ID:        uuid.New().String(),
			Name:      gofakeit.Name(),
			Email:     gofakeit.Email(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := docs.CreatePatient(p); err != nil && !types.IsErrorType(err, types.ErrorTypeConflict) {
			logger.Fatalf("Failed to seed patient: %v", err)
		}
	}

	// Two starter appointments for the demo patient: one still pending,
	// one already scheduled with the demo doctor.
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	nextWeek := now.AddDate(0, 0, 7).Format("2006-01-02")
	demoDoctorID := demoDoctor.ID

	starter := []*types.Appointment{
		{
			ID:         uuid.New().String(),
			PatientID:  demoPatient.ID,
			ClinicID:   "clinic-central",
			ClinicName: "Central Clinic",
			Date:       tomorrow,
			Time:       "09:00",
			Status:     types.StatusPending,
			Reason:     "Annual checkup",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         uuid.New().String(),
			PatientID:  demoPatient.ID,
			DoctorID:   &demoDoctorID,
			ClinicID:   "clinic-central",
			ClinicName: "Central Clinic",
			Date:       nextWeek,
			Time:       "14:30",
			Status:     types.StatusScheduled,
			Reason:     "Follow-up consultation",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}

	for _, apt := range starter {
		if err := apts.CreateAppointment(apt); err != nil {
			if types.IsErrorType(err, types.ErrorTypeConflict) {
				continue
			}
			logger.Fatalf("Failed to seed appointment: %v", err)
		}
	}

	logger.Info("Seeding complete")
}
