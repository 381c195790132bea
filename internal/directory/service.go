package directory

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cliniq/appointment-service/pkg/config"
	"github.com/cliniq/appointment-service/pkg/database"
	"github.com/cliniq/appointment-service/pkg/interfaces"
	"github.com/cliniq/appointment-service/pkg/logger"
	"github.com/cliniq/appointment-service/pkg/monitoring"
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// UnassignedName is the display name for appointments without a doctor,
// including appointments whose doctor was later removed from the directory.
const UnassignedName = "Unassigned"

// Service implements the DirectoryService interface over a DirectoryStore.
// Doctor management is admin-only; protected seed entries additionally
// reject update and delete regardless of who asks.
type Service struct {
	config   *config.Config
	logger   *logger.Logger
	store    interfaces.DirectoryStore
	validate *validator.Validate
}

// New creates a new directory service backed by PostgreSQL
func New(cfg *config.Config, db *database.DB, log *logger.Logger) interfaces.DirectoryService {
	return &Service{
		config:   cfg,
		logger:   log,
		store:    NewRepository(db, log),
		validate: validator.New(),
	}
}

// NewWithStore creates a directory service over an explicit store,
// used by tests
func NewWithStore(cfg *config.Config, log *logger.Logger, store interfaces.DirectoryStore) *Service {
	return &Service{
		config:   cfg,
		logger:   log,
		store:    store,
		validate: validator.New(),
	}
}

// ListDoctors returns every doctor directory entry. The directory is
// readable by any authenticated role so patients can pick a doctor.
func (s *Service) ListDoctors() ([]*types.Doctor, error) {
	return s.store.ListDoctors()
}

// GetDoctor returns a single doctor entry by id
func (s *Service) GetDoctor(id string) (*types.Doctor, error) {
	return s.store.GetDoctorByID(id)
}

// AddDoctor registers a new doctor directory entry, admin only. New
// entries are never protected; only seeded demo identities are.
func (s *Service) AddDoctor(actor rbac.Actor, req *types.CreateDoctorRequest) (*types.Doctor, error) {
	if err := s.authorize(actor, "doctor"); err != nil {
		return nil, err
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, types.NewValidationError("invalid doctor entry", map[string]interface{}{
			"validation": err.Error(),
		})
	}

	now := time.Now().UTC()
	doc := &types.Doctor{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		Specialization: req.Specialization,
		Protected:      false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateDoctor(doc); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"doctor_id": doc.ID,
		"actor_id":  actor.ID,
	}).Info("Doctor added to directory")

	return doc, nil
}

// UpdateDoctor applies a partial update to a doctor entry, admin only.
// Protected entries reject the update before any field is touched.
func (s *Service) UpdateDoctor(actor rbac.Actor, id string, patch *types.DoctorPatch) (*types.Doctor, error) {
	if err := s.authorize(actor, "doctor"); err != nil {
		return nil, err
	}

	doc, err := s.store.GetDoctorByID(id)
	if err != nil {
		return nil, err
	}

	if s.isProtected(doc.Protected, doc.Email) {
		return nil, types.NewProtectedEntityError("doctor", id)
	}

	if err := s.validate.Struct(patch); err != nil {
		return nil, types.NewValidationError("invalid doctor update", map[string]interface{}{
			"validation": err.Error(),
		})
	}

	if err := s.store.UpdateDoctor(id, patch); err != nil {
		return nil, err
	}

	return s.store.GetDoctorByID(id)
}

// DeleteDoctor removes a doctor entry, admin only. Protected entries
// reject the delete. Appointments referencing the removed doctor keep
// their reference and resolve to "Unassigned" on display.
func (s *Service) DeleteDoctor(actor rbac.Actor, id string) error {
	if err := s.authorize(actor, "doctor"); err != nil {
		return err
	}

	doc, err := s.store.GetDoctorByID(id)
	if err != nil {
		return err
	}

	if s.isProtected(doc.Protected, doc.Email) {
		return types.NewProtectedEntityError("doctor", id)
	}

	if err := s.store.DeleteDoctor(id); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"doctor_id": id,
		"actor_id":  actor.ID,
	}).Info("Doctor removed from directory")

	return nil
}

// ListPatients returns the patient directory, admin only
func (s *Service) ListPatients(actor rbac.Actor) ([]*types.Patient, error) {
	scope, ok := rbac.Scope(actor.Role, rbac.ActionListPatients)
	monitoring.RecordAuthzDecision(string(actor.Role), string(rbac.ActionListPatients), ok)
	if !ok || scope != rbac.ScopeAll {
		s.logger.Audit(actor.ID, string(actor.Role), string(rbac.ActionListPatients), "patient", false, nil)
		return nil, types.NewUnauthorizedError("role is not permitted to list patients", map[string]interface{}{
			"role": string(actor.Role),
		})
	}

	return s.store.ListPatients()
}

// UpdatePatient applies a partial update to a patient entry, admin only.
// Protected entries reject the update before any field is touched.
func (s *Service) UpdatePatient(actor rbac.Actor, id string, patch *types.PatientPatch) (*types.Patient, error) {
	if err := s.authorize(actor, "patient"); err != nil {
		return nil, err
	}

	p, err := s.store.GetPatientByID(id)
	if err != nil {
		return nil, err
	}

	if s.isProtected(p.Protected, p.Email) {
		return nil, types.NewProtectedEntityError("patient", id)
	}

	if err := s.validate.Struct(patch); err != nil {
		return nil, types.NewValidationError("invalid patient update", map[string]interface{}{
			"validation": err.Error(),
		})
	}

	if err := s.store.UpdatePatient(id, patch); err != nil {
		return nil, err
	}

	return s.store.GetPatientByID(id)
}

// DeletePatient removes a patient entry, admin only. Protected entries
// reject the delete; patients with appointment history fail with Conflict
// rather than orphaning their records.
func (s *Service) DeletePatient(actor rbac.Actor, id string) error {
	if err := s.authorize(actor, "patient"); err != nil {
		return err
	}

	p, err := s.store.GetPatientByID(id)
	if err != nil {
		return err
	}

	if s.isProtected(p.Protected, p.Email) {
		return types.NewProtectedEntityError("patient", id)
	}

	if err := s.store.DeletePatient(id); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"patient_id": id,
		"actor_id":   actor.ID,
	}).Info("Patient removed from directory")

	return nil
}

// EnsurePatient registers a patient on first booking. An existing entry
// is returned unchanged, so repeat bookings are cheap.
func (s *Service) EnsurePatient(id, name string) (*types.Patient, error) {
	p, err := s.store.GetPatientByID(id)
	if err == nil {
		return p, nil
	}
	if !types.IsErrorType(err, types.ErrorTypeNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	p = &types.Patient{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePatient(p); err != nil {
		// A concurrent first booking may have registered the patient
		// between the read and the insert; the entry exists either way.
		if types.IsErrorType(err, types.ErrorTypeConflict) {
			return s.store.GetPatientByID(id)
		}
		return nil, err
	}

	s.logger.WithField("patient_id", id).Info("Patient registered on first booking")

	return p, nil
}

// ResolveDoctorName maps a doctor reference to a display name. Nil
// references and references to removed doctors both resolve to
// "Unassigned" rather than failing the read.
func (s *Service) ResolveDoctorName(doctorID *string) string {
	if doctorID == nil || *doctorID == "" {
		return UnassignedName
	}

	doc, err := s.store.GetDoctorByID(*doctorID)
	if err != nil {
		return UnassignedName
	}

	return doc.Name
}

// authorize gates directory management on the permission table
func (s *Service) authorize(actor rbac.Actor, resource string) error {
	scope, ok := rbac.Scope(actor.Role, rbac.ActionManageDirectory)
	monitoring.RecordAuthzDecision(string(actor.Role), string(rbac.ActionManageDirectory), ok)
	s.logger.Audit(actor.ID, string(actor.Role), string(rbac.ActionManageDirectory), resource, ok, nil)
	if !ok || scope != rbac.ScopeAll {
		return types.NewUnauthorizedError("only clinic administrators manage the directory", map[string]interface{}{
			"role": string(actor.Role),
		})
	}
	return nil
}

// isProtected reports whether a directory entry is exempt from
// modification. Both the persisted flag and the configured email list
// count, so a seed row survives even if its flag was lost on re-import.
func (s *Service) isProtected(protected bool, email string) bool {
	if protected {
		return true
	}
	for _, p := range s.config.Directory.ProtectedEmails {
		if strings.EqualFold(email, p) {
			return true
		}
	}
	return false
}
