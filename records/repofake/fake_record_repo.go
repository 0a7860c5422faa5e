package fakerecordrepo

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/errors"
	"github.com/jrsteele09/care-portal/records"
)

var _ records.Repo = (*FakeRecordRepo)(nil)

type FakeRecordRepo struct {
	records map[records.Kind]map[string]*apimodel.Record
	lock    sync.RWMutex
	nowFunc func() time.Time
}

func NewFakeRecordRepo() records.Repo {
	return &FakeRecordRepo{
		records: make(map[records.Kind]map[string]*apimodel.Record),
		nowFunc: time.Now,
	}
}

func (rr *FakeRecordRepo) Create(kind records.Kind, fields map[string]any, createdBy string) (*apimodel.Record, error) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	now := rr.nowFunc().UTC()
	rec := &apimodel.Record{
		ID:        uuid.New().String(),
		Kind:      string(kind),
		Fields:    records.CloneFields(fields),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if rr.records[kind] == nil {
		rr.records[kind] = make(map[string]*apimodel.Record)
	}
	rr.records[kind][rec.ID] = rec
	return clone(rec), nil
}

func (rr *FakeRecordRepo) Get(kind records.Kind, id string) (*apimodel.Record, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	rec, ok := rr.records[kind][id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return clone(rec), nil
}

// List returns records oldest first.
func (rr *FakeRecordRepo) List(kind records.Kind, filter records.Filter, offset, limit int) ([]*apimodel.Record, int, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	matched := make([]*apimodel.Record, 0, len(rr.records[kind]))
	for _, rec := range rr.records[kind] {
		if filter.Visible == nil || filter.Visible(rec) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*apimodel.Record{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]*apimodel.Record, 0, end-offset)
	for _, rec := range matched[offset:end] {
		page = append(page, clone(rec))
	}
	return page, total, nil
}

func (rr *FakeRecordRepo) Update(kind records.Kind, id string, fields map[string]any) (*apimodel.Record, error) {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rec, ok := rr.records[kind][id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	rec.Fields = records.CloneFields(fields)
	rec.UpdatedAt = rr.nowFunc().UTC()
	return clone(rec), nil
}

func (rr *FakeRecordRepo) Delete(kind records.Kind, id string) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.records[kind][id]; !ok {
		return errors.ErrNotFound
	}
	delete(rr.records[kind], id)
	return nil
}

func clone(rec *apimodel.Record) *apimodel.Record {
	c := *rec
	c.Fields = records.CloneFields(rec.Fields)
	return &c
}
