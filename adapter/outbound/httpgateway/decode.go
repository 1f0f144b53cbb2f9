package httpgateway

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

var validate = validator.New()

// keepValid drops the entities failing struct validation.
// Each dropped entity is logged as a ValidationError and never fails the read.
func keepValid[T any](entity string, items []T, idOf func(T) string, logger outbound.Logger) []T {
	out := make([]T, 0, len(items))
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			for _, verr := range validationErrors(entity, idOf(item), err) {
				logger.Warn("Dropping invalid entity from backend response",
					"entity", entity, "index", i, "error", verr)
			}
			continue
		}
		out = append(out, item)
	}
	return out
}

func validationErrors(entity, id string, err error) []*model.ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*model.ValidationError{{Entity: entity, ID: id, Field: "-", Reason: err.Error()}}
	}

	out := make([]*model.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &model.ValidationError{
			Entity: entity,
			ID:     id,
			Field:  fe.Field(),
			Reason: "failed " + fe.Tag(),
		})
	}
	return out
}

func userID(u model.User) string       { return u.ID }
func lockerID(l model.Locker) string   { return l.ID }
func logID(a model.ActivityLog) string { return a.ID }
