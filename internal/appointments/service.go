package appointments

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/cliniq/appointment-service/internal/directory"
	"github.com/cliniq/appointment-service/pkg/config"
	"github.com/cliniq/appointment-service/pkg/database"
	"github.com/cliniq/appointment-service/pkg/interfaces"
	"github.com/cliniq/appointment-service/pkg/logger"
	"github.com/cliniq/appointment-service/pkg/monitoring"
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// Service implements the AppointmentService interface. It owns no state of
// its own: it mediates between the verified actor and the appointment and
// directory stores, enforcing the lifecycle and the authorization table.
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	store     interfaces.AppointmentStore
	directory interfaces.DirectoryService
	db        *database.DB
	server    *http.Server
	validate  *validator.Validate
}

// New creates a new appointment service backed by PostgreSQL
func New(cfg *config.Config, log *logger.Logger) interfaces.AppointmentService {
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to database: ", err)
		panic(err)
	}

	store := NewRepository(db, log)
	dir := directory.New(cfg, db, log)

	return &Service{
		config:    cfg,
		logger:    log,
		store:     store,
		directory: dir,
		db:        db,
		validate:  validator.New(),
	}
}

// NewWithStores creates an appointment service over explicit collaborators,
// used by tests and by callers that bring their own backends
func NewWithStores(cfg *config.Config, log *logger.Logger, store interfaces.AppointmentStore, dir interfaces.DirectoryService) *Service {
	return &Service{
		config:    cfg,
		logger:    log,
		store:     store,
		directory: dir,
		validate:  validator.New(),
	}
}

// CreateAppointment books a new appointment. Patients always book as
// themselves; clinic admins may book for any patient. The record starts
// pending with no doctor assigned, and the patient is registered in the
// directory on first booking.
func (s *Service) CreateAppointment(actor rbac.Actor, req *types.CreateAppointmentRequest) (*types.Appointment, error) {
	scope, err := s.authorize(actor, rbac.ActionCreateAppointment, "appointment")
	if err != nil {
		return nil, err
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, types.NewValidationError("invalid appointment request", map[string]interface{}{
			"cause": err.Error(),
		})
	}

	patientID := req.PatientID
	if scope == rbac.ScopeOwn {
		if patientID != "" && patientID != actor.ID {
			s.audit(actor, rbac.ActionCreateAppointment, "appointment", false)
			return nil, types.NewUnauthorizedError("patients may only book appointments for themselves", map[string]interface{}{
				"actor_id":   actor.ID,
				"patient_id": patientID,
			})
		}
		patientID = actor.ID
	}
	if patientID == "" {
		return nil, types.NewValidationError("patient_id is required", nil)
	}

	if _, err := s.directory.EnsurePatient(patientID, req.PatientName); err != nil {
		return nil, err
	}

	now := time.Now()
	apt := &types.Appointment{
		ID:         uuid.New().String(),
		PatientID:  patientID,
		DoctorID:   nil,
		ClinicID:   req.ClinicID,
		ClinicName: req.ClinicName,
		Date:       req.Date,
		Time:       req.Time,
		Status:     types.StatusPending,
		Reason:     req.Reason,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateAppointment(apt); err != nil {
		return nil, err
	}

	s.audit(actor, rbac.ActionCreateAppointment, apt.ID, true)
	s.logger.WithActor(actor.ID, string(actor.Role)).WithField("appointment_id", apt.ID).Info("Created appointment")
	return apt, nil
}

// GetAppointment retrieves a single appointment, applying the same
// visibility rule as ListAppointments: a record outside the actor's scope
// is reported as not found, exactly as if it were absent from their list.
func (s *Service) GetAppointment(actor rbac.Actor, appointmentID string) (*types.Appointment, error) {
	scope, err := s.authorize(actor, rbac.ActionListAppointments, appointmentID)
	if err != nil {
		return nil, err
	}

	apt, err := s.store.GetAppointmentByID(appointmentID)
	if err != nil {
		return nil, err
	}

	if !s.visible(actor, scope, apt) {
		return nil, types.NewNotFoundError("appointment", appointmentID)
	}

	return apt, nil
}

// ListAppointments returns the appointments visible to the actor, ordered
// by date, then time, then id. The restriction is built from the actor
// here, never left to the caller.
func (s *Service) ListAppointments(actor rbac.Actor) ([]*types.Appointment, error) {
	scope, err := s.authorize(actor, rbac.ActionListAppointments, "appointment")
	if err != nil {
		return nil, err
	}

	appointments, err := s.store.ListAppointments(s.filtersForScope(actor, scope))
	if err != nil {
		return nil, err
	}

	sortAppointments(appointments)
	return appointments, nil
}

// ListUpcoming returns the actor's visible non-terminal appointments on or
// after the given date.
func (s *Service) ListUpcoming(actor rbac.Actor, fromDate string) ([]*types.Appointment, error) {
	all, err := s.ListAppointments(actor)
	if err != nil {
		return nil, err
	}

	upcoming := []*types.Appointment{}
	for _, apt := range all {
		if apt.Status.IsTerminal() {
			continue
		}
		if fromDate != "" && apt.Date < fromDate {
			continue
		}
		upcoming = append(upcoming, apt)
	}

	return upcoming, nil
}

// AssignDoctor assigns a doctor to a pending appointment, moving it to
// scheduled as a side effect. Admin only; assigning twice fails with
// AlreadyAssigned and leaves the record exactly as the first call did.
func (s *Service) AssignDoctor(actor rbac.Actor, appointmentID, doctorID string) (*types.Appointment, error) {
	if _, err := s.authorize(actor, rbac.ActionAssignDoctor, appointmentID); err != nil {
		return nil, err
	}

	if _, err := s.directory.GetDoctor(doctorID); err != nil {
		return nil, err
	}

	apt, err := s.store.GetAppointmentByID(appointmentID)
	if err != nil {
		return nil, err
	}

	if apt.DoctorID != nil {
		return nil, types.NewAlreadyAssignedError(appointmentID, *apt.DoctorID)
	}

	if !CanTransition(apt.Status, types.StatusScheduled) {
		return nil, types.NewInvalidTransitionError(apt.Status, types.StatusScheduled)
	}

	if err := s.store.AssignDoctor(appointmentID, doctorID); err != nil {
		return nil, err
	}

	monitoring.RecordStatusTransition(string(apt.Status), string(types.StatusScheduled))
	s.audit(actor, rbac.ActionAssignDoctor, appointmentID, true)

	return s.store.GetAppointmentByID(appointmentID)
}

// UpdateStatus transitions an appointment to a new status. The target
// status determines which role may request it; ownership conditions are
// checked against the record before the guarded write.
func (s *Service) UpdateStatus(actor rbac.Actor, appointmentID string, status types.AppointmentStatus) (*types.Appointment, error) {
	if !status.IsValid() {
		return nil, types.NewValidationError("unknown appointment status", map[string]interface{}{
			"status": string(status),
		})
	}

	action, ok := TransitionAction(status)
	if !ok {
		// pending and scheduled cannot be requested directly. The actor
		// still has to clear the same authorization bar as a real
		// transition before the record is read, so the rejection never
		// leaks the status of an appointment outside their scope.
		scope, ok := transitionGrant(actor)
		if !ok {
			monitoring.RecordAuthzDecision(string(actor.Role), string(rbac.ActionCancel), false)
			s.audit(actor, rbac.ActionCancel, appointmentID, false)
			return nil, types.NewUnauthorizedError("role is not permitted to change appointment status", map[string]interface{}{
				"role": string(actor.Role),
			})
		}

		apt, err := s.store.GetAppointmentByID(appointmentID)
		if err != nil {
			return nil, err
		}
		if scope == rbac.ScopeAssigned && !apt.AssignedTo(actor.ID) {
			s.audit(actor, rbac.ActionCancel, appointmentID, false)
			return nil, types.NewUnauthorizedError("doctors may only act on their own assigned appointments", map[string]interface{}{
				"actor_id":       actor.ID,
				"appointment_id": appointmentID,
			})
		}
		return nil, types.NewInvalidTransitionError(apt.Status, status)
	}

	scope, err := s.authorize(actor, action, appointmentID)
	if err != nil {
		return nil, err
	}

	apt, err := s.store.GetAppointmentByID(appointmentID)
	if err != nil {
		return nil, err
	}

	if scope == rbac.ScopeAssigned && !apt.AssignedTo(actor.ID) {
		s.audit(actor, action, appointmentID, false)
		return nil, types.NewUnauthorizedError("doctors may only act on their own assigned appointments", map[string]interface{}{
			"actor_id":       actor.ID,
			"appointment_id": appointmentID,
		})
	}

	if !CanTransition(apt.Status, status) {
		return nil, types.NewInvalidTransitionError(apt.Status, status)
	}

	if err := s.store.UpdateStatus(appointmentID, apt.Status, status); err != nil {
		return nil, err
	}

	monitoring.RecordStatusTransition(string(apt.Status), string(status))
	s.audit(actor, action, appointmentID, true)

	return s.store.GetAppointmentByID(appointmentID)
}

// DeleteAppointment removes an appointment record. Admin only; the caller
// is expected to have obtained explicit user intent.
func (s *Service) DeleteAppointment(actor rbac.Actor, appointmentID string) error {
	if _, err := s.authorize(actor, rbac.ActionDeleteAppointment, appointmentID); err != nil {
		return err
	}

	if err := s.store.DeleteAppointment(appointmentID); err != nil {
		return err
	}

	s.audit(actor, rbac.ActionDeleteAppointment, appointmentID, true)
	return nil
}

// Start starts the appointment service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting Appointment Service on ", addr)
	return s.server.ListenAndServe()
}

// Stop stops the appointment service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Appointment Service")
		if err := s.server.Close(); err != nil {
			return err
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// authorize consults the permission table and returns the granted scope.
// A denied request is audit-logged and fails with Unauthorized, never
// silently downgraded.
func (s *Service) authorize(actor rbac.Actor, action rbac.Action, resource string) (string, error) {
	scope, ok := rbac.Scope(actor.Role, action)
	monitoring.RecordAuthzDecision(string(actor.Role), string(action), ok)
	if !ok {
		s.audit(actor, action, resource, false)
		return "", types.NewUnauthorizedError("role is not permitted to perform this operation", map[string]interface{}{
			"role":   string(actor.Role),
			"action": string(action),
		})
	}
	return scope, nil
}

func (s *Service) audit(actor rbac.Actor, action rbac.Action, resource string, allowed bool) {
	s.logger.Audit(actor.ID, string(actor.Role), string(action), resource, allowed, nil)
}

// transitionGrant returns the widest scope the role holds across the
// transition actions, and whether it holds any at all. Used to gate
// requests for statuses no role may set directly.
func transitionGrant(actor rbac.Actor) (string, bool) {
	widest, granted := "", false
	for _, action := range []rbac.Action{rbac.ActionConfirm, rbac.ActionComplete, rbac.ActionCancel} {
		scope, ok := rbac.Scope(actor.Role, action)
		if !ok {
			continue
		}
		granted = true
		if scope == rbac.ScopeAll || widest == "" {
			widest = scope
		}
	}
	return widest, granted
}

// filtersForScope builds the visibility restriction from the actor
func (s *Service) filtersForScope(actor rbac.Actor, scope string) *types.AppointmentFilters {
	switch scope {
	case rbac.ScopeOwn:
		return &types.AppointmentFilters{PatientID: actor.ID}
	case rbac.ScopeAssigned:
		return &types.AppointmentFilters{DoctorID: actor.ID}
	default:
		return &types.AppointmentFilters{}
	}
}

func (s *Service) visible(actor rbac.Actor, scope string, apt *types.Appointment) bool {
	switch scope {
	case rbac.ScopeOwn:
		return apt.PatientID == actor.ID
	case rbac.ScopeAssigned:
		return apt.AssignedTo(actor.ID)
	default:
		return true
	}
}

// sortAppointments orders by date, then time, then id. The store already
// orders its results; sorting here keeps the contract independent of the
// backend.
func sortAppointments(appointments []*types.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		if appointments[i].Time != appointments[j].Time {
			return appointments[i].Time < appointments[j].Time
		}
		return appointments[i].ID < appointments[j].ID
	})
}
