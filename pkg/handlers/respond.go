package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"clubhub-backend/pkg/lifecycle"
	"clubhub-backend/pkg/utils"
)

// writeLifecycleError 将生命周期错误映射为HTTP响应
func writeLifecycleError(w http.ResponseWriter, err error) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.WriteValidationErrorResponse(w, "Invalid or missing fields", ve.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		utils.WriteNotFoundResponse(w, "Resource not found")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		utils.WriteConflictResponse(w, "Request has already been decided")
	default:
		// 远端/存储错误原样透传，由客户端展示
		fmt.Printf("[error] lifecycle operation failed: %v\n", err)
		utils.WriteInternalServerErrorResponse(w, err.Error())
	}
}
