package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/otp"
	"github.com/trezcool/lyceum/core/user"
)

type userApi struct {
	conf     *core.Config
	logger   core.Logger
	svc      user.Service
	otpSvc   *otp.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		conf:     deps.Conf,
		logger:   deps.Logger,
		svc:      deps.UserSvc,
		otpSvc:   deps.OTPSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/otp`
	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)
	ag.POST("/otp", api.sendOTP)
	ag.POST("/otp/verify", api.verifyOTP)

	// authed endpoints
	pg := g.Group("/profile", authed...)
	pg.GET("", api.profile)
	pg.PUT("", api.updateProfile)
	pg.PUT("/picture", api.updatePicture)
	pg.PUT("/fcm-token", api.updateDeviceToken)

	sg := g.Group("/students", authed...)
	sg.GET("", api.queryStudents, staffMiddleware())
	sg.GET("/:id", api.retrieveStudent)
	sg.POST("/:id/block", api.toggleBlocked, staffMiddleware())
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	res := RegisterResponse{Message: "User registered successfully.", User: usr}
	if usr.PhoneNumber.Valid {
		id, err := api.otpSvc.Send(ctx.Request().Context(), usr.PhoneNumber.String)
		if err != nil {
			// the client can ask for another code
			api.logger.Error("sending verification code", err, usr)
		} else {
			res.VerificationID = id
		}
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	setTokenCookie(ctx, api.conf, token)
	return ctx.JSON(http.StatusOK, LoginResponse{Message: "Login successful.", User: usr, Token: token})
}

func (api *userApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx, api.conf)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out successfully."})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) sendOTP(ctx echo.Context) error {
	var data otp.NewVerification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVerification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id, err := api.otpSvc.Send(ctx.Request().Context(), data.PhoneNumber)
	if err != nil {
		return errors.Wrap(err, "sending verification code")
	}
	return ctx.JSON(http.StatusCreated, VerificationResponse{VerificationID: id})
}

func (api *userApi) verifyOTP(ctx echo.Context) error {
	var data otp.CheckVerification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckVerification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	phone, err := api.otpSvc.Verify(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "verifying code")
	}
	if _, err = api.svc.MarkPhoneVerified(reqCtx, phone); err != nil && errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "marking phone number as verified")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Phone number verified."})
}

func (api *userApi) profile(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextUser(ctx))
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr := contextUser(ctx)

	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(ctx.Request().Context(), usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updatePicture(ctx echo.Context) error {
	var data PictureRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PictureRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.SetProfilePicture(ctx.Request().Context(), contextUser(ctx).ID, data.FileURL)
	if err != nil {
		return errors.Wrap(err, "setting profile picture")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updateDeviceToken(ctx echo.Context) error {
	var data DeviceTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeviceTokenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.SetDeviceToken(ctx.Request().Context(), contextUser(ctx).ID, data.FCMToken); err != nil {
		return errors.Wrap(err, "setting device token")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "FCM token updated."})
}

func (api *userApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *userApi) retrieveStudent(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := selfOrStaff(ctx, id); err != nil {
		// do not leak the existence of other students
		return errHttpNotFound
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsStudent() {
		return user.ErrNotFound
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) toggleBlocked(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == contextUser(ctx).ID {
		return errHttpForbidden
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsStudent() {
		return user.ErrNotFound
	}

	usr, err = api.svc.ToggleBlocked(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "toggling blocked status")
	}
	return ctx.JSON(http.StatusOK, usr)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
		Token   string    `json:"token"`
	}

	RegisterResponse struct {
		Message        string    `json:"message"`
		User           user.User `json:"user"`
		VerificationID string    `json:"verificationId,omitempty"`
	}

	VerificationResponse struct {
		VerificationID string `json:"verificationId"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	PictureRequest struct {
		FileURL string `json:"fileUrl" validate:"required,url"`
	}

	DeviceTokenRequest struct {
		FCMToken string `json:"fcmToken" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (pr *PictureRequest) Validate(validate *validator.Validate) error {
	pr.FileURL = core.CleanString(pr.FileURL)
	return validate.Struct(pr)
}

func (dr *DeviceTokenRequest) Validate(validate *validator.Validate) error {
	dr.FCMToken = core.CleanString(dr.FCMToken)
	return validate.Struct(dr)
}
