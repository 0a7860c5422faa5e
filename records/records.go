package records

import (
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/errors"
)

// Kind names a record collection. It is the {kind} segment of /api/{kind}.
type Kind string

const (
	KindPatients     Kind = "patients"
	KindEvaluations  Kind = "evaluations"
	KindAppointments Kind = "appointments"
	KindMessages     Kind = "messages"
	KindForum        Kind = "forum"
)

// PatientField links a record to the patient it concerns.
const PatientField = "patientId"

var kinds = []Kind{KindPatients, KindEvaluations, KindAppointments, KindMessages, KindForum}

// Kinds lists every record collection.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseKind validates a kind from a URL segment.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Wrapf(errors.ErrUnknownKind, "%q", s)
}

// Actor is who is asking.
type Actor struct {
	UserID    string
	Role      apimodel.Role
	PatientID string
}

func (a Actor) IsAdmin() bool {
	return a.Role == apimodel.RoleAdmin
}

// CanRead reports whether actor may see rec. Admins see everything, patients
// see the forum, their own posts and records about their patient file.
func (a Actor) CanRead(rec *apimodel.Record) bool {
	switch {
	case a.IsAdmin():
		return true
	case rec.Kind == string(KindForum):
		return true
	case rec.CreatedBy == a.UserID:
		return true
	}
	return a.PatientID != "" && patientOf(rec) == a.PatientID
}

// CanCreate reports whether actor may add records of kind. Patient files and
// evaluations are written by clinic staff only.
func (a Actor) CanCreate(kind Kind) bool {
	if a.IsAdmin() {
		return true
	}
	return kind == KindAppointments || kind == KindMessages || kind == KindForum
}

// CanModify reports whether actor may update or delete rec.
func (a Actor) CanModify(rec *apimodel.Record) bool {
	return a.IsAdmin() || rec.CreatedBy == a.UserID
}

func patientOf(rec *apimodel.Record) string {
	if rec.Kind == string(KindPatients) {
		return rec.ID
	}
	id, _ := rec.Fields[PatientField].(string)
	return id
}

// CloneFields copies the top level of a field map.
func CloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
