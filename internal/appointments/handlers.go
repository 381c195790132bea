package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cliniq/appointment-service/pkg/monitoring"
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// setupRoutes configures HTTP routes for the appointment service
func (s *Service) setupRoutes(router *mux.Router) {
	if s.config.Monitoring.Enabled {
		router.Use(monitoring.HTTPMiddleware)
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Appointment routes
	api.HandleFunc("/appointments", s.createAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments", s.listAppointmentsHandler).Methods("GET")
	api.HandleFunc("/appointments/upcoming", s.listUpcomingHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}", s.getAppointmentHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}/doctor", s.assignDoctorHandler).Methods("POST")
	api.HandleFunc("/appointments/{id}/status", s.updateStatusHandler).Methods("PUT")
	api.HandleFunc("/appointments/{id}", s.deleteAppointmentHandler).Methods("DELETE")

	// Directory routes
	api.HandleFunc("/doctors", s.listDoctorsHandler).Methods("GET")
	api.HandleFunc("/doctors", s.addDoctorHandler).Methods("POST")
	api.HandleFunc("/doctors/{id}", s.updateDoctorHandler).Methods("PUT")
	api.HandleFunc("/doctors/{id}", s.deleteDoctorHandler).Methods("DELETE")
	api.HandleFunc("/patients", s.listPatientsHandler).Methods("GET")
	api.HandleFunc("/patients/{id}", s.updatePatientHandler).Methods("PUT")
	api.HandleFunc("/patients/{id}", s.deletePatientHandler).Methods("DELETE")

	// Health check
	api.HandleFunc("/health", s.healthCheckHandler).Methods("GET")

	s.logger.Info("Appointment service routes configured")
}

// createAppointmentHandler handles appointment booking
func (s *Service) createAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	var req types.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	apt, err := s.CreateAppointment(actor, &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, apt)
}

// listAppointmentsHandler returns the appointments visible to the actor
func (s *Service) listAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	appointments, err := s.ListAppointments(actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, appointments)
}

// listUpcomingHandler returns the actor's non-terminal appointments from a
// given date, defaulting to today
func (s *Service) listUpcomingHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	fromDate := r.URL.Query().Get("from")
	if fromDate == "" {
		fromDate = time.Now().Format("2006-01-02")
	}

	appointments, err := s.ListUpcoming(actor, fromDate)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, appointments)
}

// getAppointmentHandler handles single appointment retrieval
func (s *Service) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	apt, err := s.GetAppointment(actor, mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// assignDoctorHandler handles doctor assignment
func (s *Service) assignDoctorHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		DoctorID string `json:"doctor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DoctorID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "doctor_id is required", nil)
		return
	}

	apt, err := s.AssignDoctor(actor, mux.Vars(r)["id"], req.DoctorID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// updateStatusHandler handles status transitions
func (s *Service) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	apt, err := s.UpdateStatus(actor, mux.Vars(r)["id"], types.AppointmentStatus(req.Status))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, apt)
}

// deleteAppointmentHandler handles appointment deletion
func (s *Service) deleteAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.DeleteAppointment(actor, mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listDoctorsHandler returns the doctor directory, open to every role
func (s *Service) listDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	doctors, err := s.directory.ListDoctors()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, doctors)
}

// addDoctorHandler handles doctor registration
func (s *Service) addDoctorHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	var req types.CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := s.directory.AddDoctor(actor, &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, doc)
}

// updateDoctorHandler handles doctor directory updates
func (s *Service) updateDoctorHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	var patch types.DoctorPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := s.directory.UpdateDoctor(actor, mux.Vars(r)["id"], &patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, doc)
}

// deleteDoctorHandler handles doctor directory removal
func (s *Service) deleteDoctorHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.directory.DeleteDoctor(actor, mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listPatientsHandler returns the patient directory, admin only
func (s *Service) listPatientsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	patients, err := s.directory.ListPatients(actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, patients)
}

// updatePatientHandler handles patient directory updates
func (s *Service) updatePatientHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	var patch types.PatientPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := s.directory.UpdatePatient(actor, mux.Vars(r)["id"], &patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, p)
}

// deletePatientHandler handles patient directory removal
func (s *Service) deletePatientHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.directory.DeletePatient(actor, mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "appointments",
		"timestamp": time.Now().UTC(),
	}

	if s.db != nil {
		if err := s.db.Health(); err != nil {
			response["status"] = "degraded"
			response["database"] = err.Error()
			s.writeJSONResponse(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// Helper methods

// actorFromRequest extracts the verified actor from the identity headers
// the upstream gateway sets. The service trusts them completely; credential
// verification happens before a request ever reaches it.
func (s *Service) actorFromRequest(w http.ResponseWriter, r *http.Request) (rbac.Actor, bool) {
	actor := rbac.Actor{
		ID:   r.Header.Get("X-User-ID"),
		Role: rbac.Role(r.Header.Get("X-User-Role")),
	}

	if actor.ID == "" || !actor.Role.IsValid() {
		s.writeErrorResponse(w, http.StatusUnauthorized, "Missing or invalid identity assertion", nil)
		return rbac.Actor{}, false
	}

	return actor, true
}

// statusCodeForError maps the error taxonomy onto HTTP status codes
func statusCodeForError(err error) int {
	var svcErr *types.ServiceError
	if !errors.As(err, &svcErr) {
		return http.StatusInternalServerError
	}

	switch svcErr.Type {
	case types.ErrorTypeUnauthorized, types.ErrorTypeProtectedEntity:
		return http.StatusForbidden
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeInvalidTransition, types.ErrorTypeAlreadyAssigned, types.ErrorTypeConflict:
		return http.StatusConflict
	case types.ErrorTypeStoreUnavailable:
		return http.StatusServiceUnavailable
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a typed service error with its taxonomy intact
func (s *Service) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *types.ServiceError
	if errors.As(err, &svcErr) {
		s.writeJSONResponse(w, statusCodeForError(err), svcErr)
		return
	}
	s.writeErrorResponse(w, http.StatusInternalServerError, "Internal error", err)
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response: ", err)
	}
}

// writeErrorResponse writes a generic error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	s.logger.WithError(err).Error(message)

	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	s.writeJSONResponse(w, statusCode, response)
}
