package rdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yaegashi/botpressops/domain"
	"github.com/yaegashi/botpressops/domain/model"
	"gorm.io/gorm"
)

type ResourceRepository struct{ db *gorm.DB }

func NewResourceRepository(db *gorm.DB) *ResourceRepository { return &ResourceRepository{db: db} }

func resourceToRecord(s *model.ResourceState) (*ResourceRecord, error) {
	outputs := "{}"
	if len(s.Outputs) > 0 {
		b, err := json.Marshal(s.Outputs)
		if err != nil {
			return nil, fmt.Errorf("encode outputs: %w", err)
		}
		outputs = string(b)
	}
	return &ResourceRecord{
		Stack:      s.Stack,
		URN:        s.URN,
		Kind:       string(s.Kind),
		ProviderID: s.ID,
		Outputs:    outputs,
		Seq:        s.Seq,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}, nil
}

func resourceToModel(r *ResourceRecord) (*model.ResourceState, error) {
	outputs := map[string]string{}
	if r.Outputs != "" {
		if err := json.Unmarshal([]byte(r.Outputs), &outputs); err != nil {
			return nil, fmt.Errorf("decode outputs of %s: %w", r.URN, err)
		}
	}
	return &model.ResourceState{
		Stack:     r.Stack,
		URN:       r.URN,
		Kind:      model.Kind(r.Kind),
		ID:        r.ProviderID,
		Outputs:   outputs,
		Seq:       r.Seq,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (r *ResourceRepository) Get(ctx context.Context, stack, urn string) (*model.ResourceState, error) {
	var rec ResourceRecord
	if err := r.db.WithContext(ctx).First(&rec, "stack = ? AND urn = ?", stack, urn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrResourceStateNotFound
		}
		return nil, err
	}
	return resourceToModel(&rec)
}

func (r *ResourceRepository) List(ctx context.Context, stack string) ([]*model.ResourceState, error) {
	var recs []ResourceRecord
	if err := r.db.WithContext(ctx).Where("stack = ?", stack).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ResourceState, 0, len(recs))
	for i := range recs {
		s, err := resourceToModel(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *ResourceRepository) Put(ctx context.Context, s *model.ResourceState) error {
	rec, err := resourceToRecord(s)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ResourceRecord
		err := tx.First(&existing, "stack = ? AND urn = ?", s.Stack, s.URN).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec.ID = "res-" + uuid.NewString()
			return tx.Create(rec).Error
		case err != nil:
			return err
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		return tx.Save(rec).Error
	})
}

func (r *ResourceRepository) Delete(ctx context.Context, stack, urn string) error {
	res := r.db.WithContext(ctx).Delete(&ResourceRecord{}, "stack = ? AND urn = ?", stack, urn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrResourceStateNotFound
	}
	return nil
}

var _ domain.ResourceStateRepository = (*ResourceRepository)(nil)
