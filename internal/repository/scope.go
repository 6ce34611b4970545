package repository

import (
	"fmt"

	"github.com/spec-kit/trainer-service/internal/tenancy"
)

// appendScope conjoins the mandatory tenant predicate (and, for managed
// subjects, the owner predicate) onto a WHERE clause. Every list/get/update
// against a tenant-owned table goes through this; an unscoped query is a
// defect, not an optimization.
func appendScope(conds []string, args []any, scope tenancy.Scope, tenantCol, studentCol string) ([]string, []any) {
	if scope.All {
		return conds, args
	}
	args = append(args, scope.TenantID)
	conds = append(conds, fmt.Sprintf("%s=$%d", tenantCol, len(args)))
	if scope.StudentID != nil && studentCol != "" {
		args = append(args, *scope.StudentID)
		conds = append(conds, fmt.Sprintf("%s=$%d", studentCol, len(args)))
	}
	return conds, args
}
