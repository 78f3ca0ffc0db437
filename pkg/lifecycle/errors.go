package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"clubhub-backend/pkg/database"
)

var (
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrInvalidTransition 申请已处于终态，决定被拒绝
	ErrInvalidTransition = errors.New("request already decided")
)

// ValidationError lists the required fields a payload is missing or carries
// invalid values for.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// mapStoreError 将存储层哨兵错误翻译为生命周期错误
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, database.ErrNotPending):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	default:
		return err
	}
}
