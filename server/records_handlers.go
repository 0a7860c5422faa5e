package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/records"
)

// ListRecordsHandler pages through the records of a kind that the caller may
// read.
func (s *Server) ListRecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, kind, err := recordRequest(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		offset, limit, err := parsePaging(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		items, total, err := s.repos.Records.List(kind, records.Filter{Visible: actor.CanRead}, offset, limit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		page := apimodel.Page[apimodel.Record]{
			Items:  make([]apimodel.Record, 0, len(items)),
			Total:  total,
			Offset: offset,
			Limit:  limit,
		}
		for _, rec := range items {
			page.Items = append(page.Items, *rec)
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// GetRecordHandler answers 404 both for missing records and for records the
// caller may not read.
func (s *Server) GetRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, kind, err := recordRequest(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		rec, err := s.readableRecord(actor, kind, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// CreateRecordHandler stores a new record. Patients may only file records
// against their own patient file, which is filled in when left out.
func (s *Server) CreateRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, kind, err := recordRequest(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if !actor.CanCreate(kind) {
			writeServiceError(w, r, errors.Wrapf(errors.ErrForbidden, "cannot create %s", kind))
			return
		}

		var input apimodel.RecordInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeServiceError(w, r, err)
			return
		}
		fields, err := ownedFields(actor, kind, input.Fields, "")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		rec, err := s.repos.Records.Create(kind, fields, actor.UserID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// UpdateRecordHandler replaces the fields of a record the caller authored, or
// of any record for admins.
func (s *Server) UpdateRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, kind, err := recordRequest(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		rec, err := s.modifiableRecord(actor, kind, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		var input apimodel.RecordInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeServiceError(w, r, err)
			return
		}
		current, _ := rec.Fields[records.PatientField].(string)
		fields, err := ownedFields(actor, kind, input.Fields, current)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		updated, err := s.repos.Records.Update(kind, rec.ID, fields)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, kind, err := recordRequest(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		rec, err := s.modifiableRecord(actor, kind, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := s.repos.Records.Delete(kind, rec.ID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func recordRequest(r *http.Request) (records.Actor, records.Kind, error) {
	actor, err := actorFromContext(r.Context())
	if err != nil {
		return records.Actor{}, "", err
	}
	kind, err := records.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return records.Actor{}, "", err
	}
	return actor, kind, nil
}

func (s *Server) readableRecord(actor records.Actor, kind records.Kind, id string) (*apimodel.Record, error) {
	rec, err := s.repos.Records.Get(kind, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanRead(rec) {
		return nil, errors.Wrapf(errors.ErrNotFound, "%s %q", kind, id)
	}
	return rec, nil
}

func (s *Server) modifiableRecord(actor records.Actor, kind records.Kind, id string) (*apimodel.Record, error) {
	rec, err := s.readableRecord(actor, kind, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(rec) {
		return nil, errors.Wrapf(errors.ErrForbidden, "cannot modify %s %q", kind, id)
	}
	return rec, nil
}

// ownedFields pins the patient link of records written by patients. Forum
// posts are not about a patient and are left alone.
func ownedFields(actor records.Actor, kind records.Kind, fields map[string]any, current string) (map[string]any, error) {
	if fields == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "fields are required")
	}
	out := records.CloneFields(fields)
	if actor.IsAdmin() || kind == records.KindForum {
		return out, nil
	}

	want := actor.PatientID
	if current != "" {
		want = current
	}
	if given, ok := out[records.PatientField]; ok && given != want {
		return nil, errors.Wrapf(errors.ErrForbidden, "%s must be %q", records.PatientField, want)
	}
	if want != "" {
		out[records.PatientField] = want
	}
	return out, nil
}
