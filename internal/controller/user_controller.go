package controller

import (
	"errors"

	"elearn_backend/internal/service"
	"elearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 管理端用户管理接口
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// ListUsers godoc
// @Summary 用户列表
// @Description 分页查询用户，支持按角色和关键字过滤
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param role query string false "角色过滤"
// @Param keyword query string false "姓名/邮箱关键字"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, limit := util.ParsePagination(ctx.Query("page"), ctx.Query("limit"))

	users, total, err := c.UserService.ListUsers(page, limit, ctx.Query("role"), ctx.Query("keyword"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  users,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetUser godoc
// @Summary 获取指定用户
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{userId} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.GetUser(util.MustParseUint(ctx.Param("userId")))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}

// UpdateUser godoc
// @Summary 更新指定用户
// @Description 管理员修改用户姓名或角色
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Param body body service.AdminUserUpdateRequest true "用户信息"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/users/{userId} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var req service.AdminUserUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.AdminUpdateUser(util.MustParseUint(ctx.Param("userId")), req)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}

// SetDisabled godoc
// @Summary 启用/禁用用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/users/{userId}/disabled [patch]
func (c *UserController) SetDisabled(ctx *gin.Context) {
	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.SetDisabled(util.MustParseUint(ctx.Param("userId")), req.Disabled); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"disabled": req.Disabled})
}

// ResetPassword godoc
// @Summary 重置用户密码
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/users/{userId}/password [patch]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.ResetPassword(util.MustParseUint(ctx.Param("userId")), req.Password); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"message": "Password reset"})
}

// DeleteUser godoc
// @Summary 删除用户
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/users/{userId} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	if err := c.UserService.DeleteUser(util.MustParseUint(ctx.Param("userId"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "User deleted"})
}
