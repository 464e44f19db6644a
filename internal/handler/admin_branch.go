package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stall-rental/internal/config"
	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/repository"
)

// AdminHandler bundles the repositories the administrator surface needs:
// branch CRUD and employee-account provisioning.
type AdminHandler struct {
	Cfg      config.Config
	Branches *repository.BranchRepo
	Users    *repository.UserRepo
}

func NewAdminHandler(cfg config.Config, b *repository.BranchRepo, u *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Branches: b, Users: u}
}

// CreateBranch handles POST /v1/admin/branches.
func (h *AdminHandler) CreateBranch(c echo.Context) error {
	var body struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return fail(c, http.StatusBadRequest, "Name is required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	b := &model.Branch{Name: name, Address: strings.TrimSpace(body.Address)}
	if err := h.Branches.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Branch name already exists")
		}
		return storeFail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "branch": b})
}

// UpdateBranch handles PUT /v1/admin/branches/:id.
func (h *AdminHandler) UpdateBranch(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	var body struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return fail(c, http.StatusBadRequest, "Name is required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	if err := h.Branches.Update(ctx, id, name, strings.TrimSpace(body.Address)); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fail(c, http.StatusNotFound, "Branch not found")
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusConflict, "Branch name already exists")
		default:
			return storeFail(c, err)
		}
	}
	b, err := h.Branches.GetByID(ctx, id)
	if err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "branch": b})
}

// DeactivateBranch handles DELETE /v1/admin/branches/:id (soft close).
func (h *AdminHandler) DeactivateBranch(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	if err := h.Branches.Deactivate(ctx, id); err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// employeeRoles are the roles an administrator may provision.  Applicants
// register themselves and administrators are seeded out of band.
var employeeRoles = map[model.Role]bool{
	model.RoleBranchManager: true,
	model.RoleBusinessOwner: true,
	model.RoleInspector:     true,
	model.RoleCollector:     true,
}

// CreateEmployee handles POST /v1/admin/employees: provisions a credential
// for a branch-scoped staff role.
func (h *AdminHandler) CreateEmployee(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
		BranchID uint64 `json:"branch_id"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid body")
	}
	body.Username = strings.ToLower(strings.TrimSpace(body.Username))
	if body.Username == "" || body.Password == "" {
		return fail(c, http.StatusBadRequest, "Username and password are required")
	}
	role, ok := model.ParseRole(strings.ToLower(strings.TrimSpace(body.Role)))
	if !ok || !employeeRoles[role] {
		return fail(c, http.StatusBadRequest, "Unknown employee role")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	if _, err := h.Branches.GetByID(ctx, body.BranchID); err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			return fail(c, http.StatusNotFound, "Branch not found")
		}
		return storeFail(c, err)
	}
	uid, err := h.Users.Create(ctx, body.Username, body.Password, role, body.BranchID, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return fail(c, http.StatusConflict, "Username already exists")
		}
		return storeFail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"id":       uid,
		"username": body.Username,
		"role":     role.String(),
		"branchId": body.BranchID,
	})
}

// ListEmployees handles GET /v1/admin/employees?role=&branch_id=.
func (h *AdminHandler) ListEmployees(c echo.Context) error {
	role, ok := model.ParseRole(strings.ToLower(strings.TrimSpace(c.QueryParam("role"))))
	if !ok || !employeeRoles[role] {
		return fail(c, http.StatusBadRequest, "Unknown employee role")
	}
	var branchID uint64
	if q := c.QueryParam("branch_id"); q != "" {
		id, err := parseUint(q)
		if err != nil {
			return fail(c, http.StatusBadRequest, "Invalid branch_id")
		}
		branchID = id
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	items, err := h.Users.ListByRole(ctx, role, branchID)
	if err != nil {
		return storeFail(c, err)
	}
	out := make([]echo.Map, 0, len(items))
	for _, u := range items {
		out = append(out, echo.Map{
			"id":        u.ID,
			"username":  u.Username,
			"role":      u.Role.String(),
			"branchId":  u.BranchID,
			"isActive":  u.IsActive,
			"lastLogin": u.LastLoginAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": out})
}

// DeactivateEmployee handles DELETE /v1/admin/employees/:id (soft only; the
// credential row stays for the audit trail).
func (h *AdminHandler) DeactivateEmployee(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	if err := h.Users.Deactivate(ctx, id); err != nil {
		return storeFail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
