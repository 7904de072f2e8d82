package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"activityhub/models"
)

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /signup
func (d *deps) signup(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}

	u := models.User{Email: req.Email, Password: req.Password}
	if err := d.Users.Create(c.Request.Context(), &u); err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered."})
			return
		}
		d.internalError(c, "Could not save user.", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully.", "id": u.ID})
}

// POST /login
func (d *deps) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
		return
	}

	user, err := d.Users.ValidateCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Could not authenticate user."})
		return
	}

	token, err := d.Tokens.GenerateToken(user.Email, user.ID)
	if err != nil {
		d.internalError(c, "Could not authenticate user.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "token": token, "userId": user.ID})
}
