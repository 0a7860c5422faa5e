package records

import "github.com/jrsteele09/care-portal/apimodel"

// Filter narrows a List call. A nil Visible keeps everything.
type Filter struct {
	Visible func(*apimodel.Record) bool
}

// Repo stores records per kind. Implementations return copies.
type Repo interface {
	Create(kind Kind, fields map[string]any, createdBy string) (*apimodel.Record, error)
	Get(kind Kind, id string) (*apimodel.Record, error)
	List(kind Kind, filter Filter, offset, limit int) ([]*apimodel.Record, int, error)
	Update(kind Kind, id string, fields map[string]any) (*apimodel.Record, error)
	Delete(kind Kind, id string) error
}
