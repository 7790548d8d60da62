package study

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FeatureRecord is one student profile. All thirteen fields are required;
// pointers distinguish an absent field from a legitimate zero. Field order
// below is the order the model was trained on and must not change.
type FeatureRecord struct {
	Failures   *int `json:"failures" validate:"required"`
	Higher     *int `json:"higher" validate:"required"`
	Absences   *int `json:"absences" validate:"required"`
	Freetime   *int `json:"freetime" validate:"required"`
	Goout      *int `json:"goout" validate:"required"`
	Famrel     *int `json:"famrel" validate:"required"`
	Famsup     *int `json:"famsup" validate:"required"`
	Schoolsup  *int `json:"schoolsup" validate:"required"`
	Paid       *int `json:"paid" validate:"required"`
	Traveltime *int `json:"traveltime" validate:"required"`
	Health     *int `json:"health" validate:"required"`
	Internet   *int `json:"internet" validate:"required"`
	Age        *int `json:"age" validate:"required"`
}

// FeatureNames returns the model's feature order.
func FeatureNames() []string {
	return []string{
		"failures", "higher", "absences", "freetime", "goout",
		"famrel", "famsup", "schoolsup", "paid", "traveltime",
		"health", "internet", "age",
	}
}

var validate = validator.New()

// Validate reports which required fields are missing. It never inspects
// field values beyond presence.
func (r FeatureRecord) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, jsonFieldName(fe.StructField()))
	}
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

// Vector flattens the record into the model's input order.
func (r FeatureRecord) Vector() []float64 {
	fields := []*int{
		r.Failures, r.Higher, r.Absences, r.Freetime, r.Goout,
		r.Famrel, r.Famsup, r.Schoolsup, r.Paid, r.Traveltime,
		r.Health, r.Internet, r.Age,
	}
	vector := make([]float64, len(fields))
	for i, field := range fields {
		if field != nil {
			vector[i] = float64(*field)
		}
	}
	return vector
}

func jsonFieldName(structField string) string {
	return strings.ToLower(structField)
}
