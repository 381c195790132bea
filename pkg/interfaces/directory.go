package interfaces

import (
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// DirectoryService resolves identities to directory entries and exposes the
// administrator-only doctor management operations. Protected seed entries
// reject update and delete.
type DirectoryService interface {
	ListDoctors() ([]*types.Doctor, error)
	GetDoctor(id string) (*types.Doctor, error)
	AddDoctor(actor rbac.Actor, req *types.CreateDoctorRequest) (*types.Doctor, error)
	UpdateDoctor(actor rbac.Actor, id string, patch *types.DoctorPatch) (*types.Doctor, error)
	DeleteDoctor(actor rbac.Actor, id string) error

	ListPatients(actor rbac.Actor) ([]*types.Patient, error)
	UpdatePatient(actor rbac.Actor, id string, patch *types.PatientPatch) (*types.Patient, error)
	DeletePatient(actor rbac.Actor, id string) error

	// EnsurePatient registers a patient on first booking if the directory
	// does not know the identifier yet.
	EnsurePatient(id, name string) (*types.Patient, error)

	// ResolveDoctorName maps a doctor reference to a display name.
	// Nil and dangling references resolve to "Unassigned".
	ResolveDoctorName(doctorID *string) string
}

// DirectoryStore persists doctor and patient directory entries
type DirectoryStore interface {
	CreateDoctor(doc *types.Doctor) error
	GetDoctorByID(id string) (*types.Doctor, error)
	ListDoctors() ([]*types.Doctor, error)
	UpdateDoctor(id string, patch *types.DoctorPatch) error
	DeleteDoctor(id string) error

	CreatePatient(p *types.Patient) error
	GetPatientByID(id string) (*types.Patient, error)
	ListPatients() ([]*types.Patient, error)
	UpdatePatient(id string, patch *types.PatientPatch) error
	DeletePatient(id string) error
}
