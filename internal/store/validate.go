package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"supply-agent/internal/core"
)

var validate = validator.New()

// ValidateRecord checks rec against its struct tags and returns a *core.DataError naming
// every failing field.
func ValidateRecord(rec core.StockRecord, index int) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &core.DataError{Code: rec.Code, Index: index, Reason: err.Error()}
	}
	return &core.DataError{Code: rec.Code, Index: index, Reason: describe(verrs)}
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
