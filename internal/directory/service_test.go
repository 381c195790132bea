package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cliniq/appointment-service/pkg/config"
	"github.com/cliniq/appointment-service/pkg/logger"
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// MockDirectoryStore is a mock implementation of DirectoryStore
type MockDirectoryStore struct {
	mock.Mock
}

func (m *MockDirectoryStore) CreateDoctor(doc *types.Doctor) error {
	args := m.Called(doc)
	return args.Error(0)
}

func (m *MockDirectoryStore) GetDoctorByID(id string) (*types.Doctor, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Doctor), args.Error(1)
}

func (m *MockDirectoryStore) ListDoctors() ([]*types.Doctor, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Doctor), args.Error(1)
}

func (m *MockDirectoryStore) UpdateDoctor(id string, patch *types.DoctorPatch) error {
	args := m.Called(id, patch)
	return args.Error(0)
}

func (m *MockDirectoryStore) DeleteDoctor(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDirectoryStore) CreatePatient(p *types.Patient) error {
	args := m.Called(p)
	return args.Error(0)
}

func (m *MockDirectoryStore) GetPatientByID(id string) (*types.Patient, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Patient), args.Error(1)
}

func (m *MockDirectoryStore) ListPatients() ([]*types.Patient, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Patient), args.Error(1)
}

func (m *MockDirectoryStore) UpdatePatient(id string, patch *types.PatientPatch) error {
	args := m.Called(id, patch)
	return args.Error(0)
}

func (m *MockDirectoryStore) DeletePatient(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func setupTestDirectory() (*Service, *MockDirectoryStore) {
	cfg := &config.Config{}
	cfg.Directory.ProtectedEmails = []string{
		"patient@example.com",
		"doctor@example.com",
		"admin@example.com",
	}
	mockStore := &MockDirectoryStore{}
	service := NewWithStore(cfg, logger.New("error"), mockStore)
	return service, mockStore
}

var (
	patientActor = rbac.Actor{ID: "patient-1", Role: rbac.RolePatient}
	doctorActor  = rbac.Actor{ID: "doctor-1", Role: rbac.RoleDoctor}
	adminActor   = rbac.Actor{ID: "admin-1", Role: rbac.RoleClinicAdmin}
)

func TestAddDoctor_AdminOnly(t *testing.T) {
	service, mockStore := setupTestDirectory()

	req := &types.CreateDoctorRequest{
		Name:           "Dr. Smith",
		Email:          "dr.smith@cliniq.local",
		Specialization: "Cardiology",
	}

	mockStore.On("CreateDoctor", mock.AnythingOfType("*types.Doctor")).Return(nil)

	doc, err := service.AddDoctor(adminActor, req)

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.Protected)
	assert.Equal(t, "dr.smith@cliniq.local", doc.Email)

	_, err = service.AddDoctor(doctorActor, req)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeUnauthorized))

	_, err = service.AddDoctor(patientActor, req)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeUnauthorized))

	mockStore.AssertNumberOfCalls(t, "CreateDoctor", 1)
}

func TestAddDoctor_InvalidEmail(t *testing.T) {
	service, mockStore := setupTestDirectory()

	req := &types.CreateDoctorRequest{Name: "Dr. Smith", Email: "not-an-email"}

	_, err := service.AddDoctor(adminActor, req)

	assert.True(t, types.IsErrorType(err, types.ErrorTypeValidation))
	mockStore.AssertNotCalled(t, "CreateDoctor", mock.Anything)
}

func TestUpdateDoctor_ProtectedByFlag(t *testing.T) {
	service, mockStore := setupTestDirectory()

	seeded := &types.Doctor{ID: "doctor-demo", Name: "Demo Doctor", Email: "other@cliniq.local", Protected: true}
	mockStore.On("GetDoctorByID", "doctor-demo").Return(seeded, nil)

	name := "Renamed"
	_, err := service.UpdateDoctor(adminActor, "doctor-demo", &types.DoctorPatch{Name: &name})

	assert.True(t, types.IsErrorType(err, types.ErrorTypeProtectedEntity))
	mockStore.AssertNotCalled(t, "UpdateDoctor", mock.Anything, mock.Anything)
}

func TestUpdateDoctor_ProtectedByEmail(t *testing.T) {
	service, mockStore := setupTestDirectory()

	// Flag lost on re-import, but the email is on the configured list
	seeded := &types.Doctor{ID: "doctor-demo", Name: "Demo Doctor", Email: "Doctor@Example.com", Protected: false}
	mockStore.On("GetDoctorByID", "doctor-demo").Return(seeded, nil)

	name := "Renamed"
	_, err := service.UpdateDoctor(adminActor, "doctor-demo", &types.DoctorPatch{Name: &name})

	assert.True(t, types.IsErrorType(err, types.ErrorTypeProtectedEntity))
}

func TestUpdateDoctor_Success(t *testing.T) {
	service, mockStore := setupTestDirectory()

	doc := &types.Doctor{ID: "doctor-2", Name: "Dr. Lee", Email: "dr.lee@cliniq.local"}
	renamed := &types.Doctor{ID: "doctor-2", Name: "Dr. Lee-Park", Email: "dr.lee@cliniq.local"}
	name := "Dr. Lee-Park"
	patch := &types.DoctorPatch{Name: &name}

	mockStore.On("GetDoctorByID", "doctor-2").Return(doc, nil).Once()
	mockStore.On("UpdateDoctor", "doctor-2", patch).Return(nil)
	mockStore.On("GetDoctorByID", "doctor-2").Return(renamed, nil).Once()

	got, err := service.UpdateDoctor(adminActor, "doctor-2", patch)

	require.NoError(t, err)
	assert.Equal(t, "Dr. Lee-Park", got.Name)
	mockStore.AssertExpectations(t)
}

func TestDeleteDoctor_Protected(t *testing.T) {
	service, mockStore := setupTestDirectory()

	seeded := &types.Doctor{ID: "doctor-demo", Email: "doctor@example.com", Protected: true}
	mockStore.On("GetDoctorByID", "doctor-demo").Return(seeded, nil)

	err := service.DeleteDoctor(adminActor, "doctor-demo")

	assert.True(t, types.IsErrorType(err, types.ErrorTypeProtectedEntity))
	mockStore.AssertNotCalled(t, "DeleteDoctor", mock.Anything)
}

func TestDeleteDoctor_NotFound(t *testing.T) {
	service, mockStore := setupTestDirectory()

	mockStore.On("GetDoctorByID", "ghost").Return(nil, types.NewNotFoundError("doctor", "ghost"))

	err := service.DeleteDoctor(adminActor, "ghost")

	assert.True(t, types.IsErrorType(err, types.ErrorTypeNotFound))
}

func TestListPatients_AdminOnly(t *testing.T) {
	service, mockStore := setupTestDirectory()

	mockStore.On("ListPatients").Return([]*types.Patient{{ID: "patient-1"}}, nil)

	patients, err := service.ListPatients(adminActor)
	require.NoError(t, err)
	assert.Len(t, patients, 1)

	_, err = service.ListPatients(doctorActor)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeUnauthorized))

	_, err = service.ListPatients(patientActor)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeUnauthorized))
}

func TestUpdatePatient_AdminOnly(t *testing.T) {
	service, mockStore := setupTestDirectory()

	p := &types.Patient{ID: "patient-2", Name: "Alice", Email: "alice@cliniq.local"}
	renamed := &types.Patient{ID: "patient-2", Name: "Alice B", Email: "alice@cliniq.local"}
	name := "Alice B"
	patch := &types.PatientPatch{Name: &name}

	mockStore.On("GetPatientByID", "patient-2").Return(p, nil).Once()
	mockStore.On("UpdatePatient", "patient-2", patch).Return(nil)
	mockStore.On("GetPatientByID", "patient-2").Return(renamed, nil).Once()

	got, err := service.UpdatePatient(adminActor, "patient-2", patch)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", got.Name)

	_, err = service.UpdatePatient(doctorActor, "patient-2", patch)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeUnauthorized))

	_, err = service.UpdatePatient(patientActor, "patient-2", patch)
	assert.True(t, types.IsErrorType(err, types.ErrorTypeUnauthorized))

	mockStore.AssertNumberOfCalls(t, "UpdatePatient", 1)
}

func TestUpdatePatient_Protected(t *testing.T) {
	service, mockStore := setupTestDirectory()

	seeded := &types.Patient{ID: "patient-demo", Name: "Demo Patient", Email: "patient@example.com", Protected: true}
	mockStore.On("GetPatientByID", "patient-demo").Return(seeded, nil)

	name := "Renamed"
	_, err := service.UpdatePatient(adminActor, "patient-demo", &types.PatientPatch{Name: &name})

	assert.True(t, types.IsErrorType(err, types.ErrorTypeProtectedEntity))
	mockStore.AssertNotCalled(t, "UpdatePatient", mock.Anything, mock.Anything)
}

func TestDeletePatient_Protected(t *testing.T) {
	service, mockStore := setupTestDirectory()

	// Flag lost on re-import, but the email is on the configured list
	seeded := &types.Patient{ID: "patient-demo", Email: "Patient@Example.com", Protected: false}
	mockStore.On("GetPatientByID", "patient-demo").Return(seeded, nil)

	err := service.DeletePatient(adminActor, "patient-demo")

	assert.True(t, types.IsErrorType(err, types.ErrorTypeProtectedEntity))
	mockStore.AssertNotCalled(t, "DeletePatient", mock.Anything)
}

func TestDeletePatient_Success(t *testing.T) {
	service, mockStore := setupTestDirectory()

	p := &types.Patient{ID: "patient-2", Email: "alice@cliniq.local"}
	mockStore.On("GetPatientByID", "patient-2").Return(p, nil)
	mockStore.On("DeletePatient", "patient-2").Return(nil)

	assert.NoError(t, service.DeletePatient(adminActor, "patient-2"))
	mockStore.AssertExpectations(t)
}

func TestDeletePatient_WithAppointmentHistory(t *testing.T) {
	service, mockStore := setupTestDirectory()

	p := &types.Patient{ID: "patient-2", Email: "alice@cliniq.local"}
	mockStore.On("GetPatientByID", "patient-2").Return(p, nil)
	mockStore.On("DeletePatient", "patient-2").
		Return(types.NewConflictError("patient has appointment records", nil))

	err := service.DeletePatient(adminActor, "patient-2")

	assert.True(t, types.IsErrorType(err, types.ErrorTypeConflict))
}

func TestEnsurePatient_ExistingUnchanged(t *testing.T) {
	service, mockStore := setupTestDirectory()

	existing := &types.Patient{ID: "patient-1", Name: "Alice"}
	mockStore.On("GetPatientByID", "patient-1").Return(existing, nil)

	p, err := service.EnsurePatient("patient-1", "Different Name")

	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	mockStore.AssertNotCalled(t, "CreatePatient", mock.Anything)
}

func TestEnsurePatient_CreatesOnFirstBooking(t *testing.T) {
	service, mockStore := setupTestDirectory()

	mockStore.On("GetPatientByID", "patient-new").Return(nil, types.NewNotFoundError("patient", "patient-new"))
	mockStore.On("CreatePatient", mock.AnythingOfType("*types.Patient")).Return(nil)

	p, err := service.EnsurePatient("patient-new", "Bob")

	require.NoError(t, err)
	assert.Equal(t, "patient-new", p.ID)
	assert.Equal(t, "Bob", p.Name)
	mockStore.AssertExpectations(t)
}

func TestEnsurePatient_LostInsertRace(t *testing.T) {
	service, mockStore := setupTestDirectory()

	// Another booking registered the patient between the read and the
	// insert; the booking still succeeds with the existing entry.
	winner := &types.Patient{ID: "patient-new", Name: "Bob"}
	mockStore.On("GetPatientByID", "patient-new").Return(nil, types.NewNotFoundError("patient", "patient-new")).Once()
	mockStore.On("CreatePatient", mock.AnythingOfType("*types.Patient")).
		Return(types.NewConflictError("patient already registered", nil))
	mockStore.On("GetPatientByID", "patient-new").Return(winner, nil).Once()

	p, err := service.EnsurePatient("patient-new", "Bob")

	require.NoError(t, err)
	assert.Equal(t, "patient-new", p.ID)
	mockStore.AssertExpectations(t)
}

func TestResolveDoctorName(t *testing.T) {
	service, mockStore := setupTestDirectory()

	known := "doctor-1"
	dangling := "doctor-gone"

	mockStore.On("GetDoctorByID", "doctor-1").Return(&types.Doctor{ID: "doctor-1", Name: "Dr. Smith"}, nil)
	mockStore.On("GetDoctorByID", "doctor-gone").Return(nil, types.NewNotFoundError("doctor", "doctor-gone"))

	assert.Equal(t, "Dr. Smith", service.ResolveDoctorName(&known))
	assert.Equal(t, UnassignedName, service.ResolveDoctorName(&dangling))
	assert.Equal(t, UnassignedName, service.ResolveDoctorName(nil))
}
