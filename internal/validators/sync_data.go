package validators

import (
	"context"

	"github.com/ikarpovich/study-sync/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate or internal validation methods
// to restrict validation to a subset of fields (field-level scoping).
const (
	// FieldEntityID targets the client-generated unique identifier of a
	// synced entity.
	FieldEntityID = "id"

	// FieldKind targets the entity kind (document, extract, learning item).
	FieldKind = "kind"

	// FieldBatch targets the overall push batch contents.
	FieldBatch = "batch"
)

// maxEntityIDLength bounds client-supplied ids; they index three tables and
// unreasonably long values point at a broken client.
const maxEntityIDLength = 128

// SyncDataValidator validates inbound sync payloads before they reach the
// service layer: pushed batches, individual entities, and pull watermarks.
type SyncDataValidator struct {
}

func NewSyncDataValidator() Validator {
	return &SyncDataValidator{}
}

func (v *SyncDataValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SyncEntity:
		return v.validateSyncEntity(ctx, value, fields...)
	case *models.SyncEntity:
		return v.validateSyncEntity(ctx, *value, fields...)

	case models.PushRequest:
		return v.validatePushRequest(ctx, value, fields...)
	case *models.PushRequest:
		return v.validatePushRequest(ctx, *value, fields...)

	case models.EntityKind:
		if !isValidKind(value) {
			return ErrInvalidKind
		}
		return nil

	case int64:
		// pull watermark
		if value < 0 {
			return ErrInvalidSince
		}
		return nil

	default:
		return ErrUnsupportedType
	}
}

// isValidKind reports whether kind is one of the recognized EntityKind values.
func isValidKind(kind models.EntityKind) bool {
	for _, k := range models.Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// validateSyncEntity validates a single pushed entity.
//
// Default validated fields (when none specified): EntityID.
//
// Returns the first encountered validation error or nil.
func (v *SyncDataValidator) validateSyncEntity(ctx context.Context, entity models.SyncEntity, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEntityID}
	}

	for _, f := range fields {
		switch f {
		case FieldEntityID:
			if entity.ID == "" {
				return ErrInvalidEntityID
			}
			if len(entity.ID) > maxEntityIDLength {
				return ErrEntityIDTooLong
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validatePushRequest validates a push batch: the batch must carry at least
// one entity and every entity must pass entity-level validation.
func (v *SyncDataValidator) validatePushRequest(ctx context.Context, batch models.PushRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldBatch}
	}

	for _, f := range fields {
		switch f {
		case FieldBatch:
			if batch.IsEmpty() {
				return ErrEmptyBatch
			}
			for _, kind := range models.Kinds {
				for _, entity := range batch.Entities(kind) {
					if err := v.validateSyncEntity(ctx, entity); err != nil {
						return err
					}
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
