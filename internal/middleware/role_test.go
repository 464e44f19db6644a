package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stall-rental/internal/model"
)

func runRequireRole(t *testing.T, ctxRole any, allowed ...model.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ctxRole != nil {
		c.Set("role", ctxRole)
	}
	require.NoError(t, RequireRole(allowed...)(okNext)(c))
	return rec
}

func TestRequireRoleAllows(t *testing.T) {
	rec := runRequireRole(t, model.RoleCollector, model.RoleCollector, model.RoleBranchManager)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOther(t *testing.T) {
	rec := runRequireRole(t, model.RoleApplicant, model.RoleCollector)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Forbidden"}`, rec.Body.String())
}

func TestRequireRoleNoHierarchy(t *testing.T) {
	// Administrators get no implicit access to other roles' routes.
	rec := runRequireRole(t, model.RoleAdministrator, model.RoleBranchManager)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleFailsClosed(t *testing.T) {
	// Missing role in context.
	rec := runRequireRole(t, nil, model.RoleCollector)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Wrong type in context.
	rec = runRequireRole(t, "collector", model.RoleCollector)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A role outside the closed enumeration.
	rec = runRequireRole(t, model.Role("superuser"), model.RoleCollector)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Empty allow list rejects everyone.
	rec = runRequireRole(t, model.RoleAdministrator)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
