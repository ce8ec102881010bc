package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"uvocollab/config"
	"uvocollab/models"
	"uvocollab/utils"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

func SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if user.EmailVerified {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already verified",
		})
	}

	// Cooldown so the endpoint can't be used to flood an inbox
	if user.OTP != "" && time.Until(user.OTPExpiresAt) > utils.OTPExpiry-utils.OTPResendCooldown {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Please wait before requesting another code",
		})
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate code",
		})
	}
	if err := utils.SaveOTP(user.ID, otp); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store code",
		})
	}
	go utils.SendOTPEmail(user.Email, otp)

	return c.JSON(fiber.Map{
		"message": "Verification code sent",
	})
}

func VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if !utils.VerifyOTP(&user, req.OTP) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired code",
		})
	}

	if err := config.DB.Model(&user).Update("email_verified", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to verify email",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Email verified successfully",
	})
}

func ResendOTP(c *fiber.Ctx) error {
	return SendOTP(c)
}
