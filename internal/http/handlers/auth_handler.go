// Admin login handler.
//
// POST /auth/login compares the submitted credentials with the configured
// admin account and returns a fixed token. Nothing on the server checks that
// token; it only lets the admin UI remember that the login succeeded.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password" example:"secret"`
}

// AdminInfo identifies the logged-in admin.
type AdminInfo struct {
	Email string `json:"email" example:"admin@example.com"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message" example:"Admin login successful!"`
	Admin   AdminInfo `json:"admin"`
	Token   string    `json:"token" example:"admin_dummy_token"`
}

// Login godoc
// @ID          adminLogin
// @Summary     Admin login
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid admin credentials"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many attempts"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	res, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		Success: true,
		Message: "Admin login successful!",
		Admin:   AdminInfo{Email: res.Email},
		Token:   res.Token,
	})
}
