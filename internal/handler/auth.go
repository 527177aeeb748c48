package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"unimate-server/internal/auth"
	"unimate-server/internal/middleware"
	"unimate-server/internal/model"
	"unimate-server/internal/relay"
	"unimate-server/internal/store"
)

type AuthHandler struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
	Relay       *relay.Hub
	ScanLimiter *middleware.RateLimiter
}

type scanBody struct {
	RFIDUID string `json:"rfid_uid"`
	Kiosk   string `json:"kiosk"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Scan authenticates an RFID card presented at a kiosk. On success it
// returns the token pair and timetable, and pushes the same payload to the
// kiosk's screen over the relay.
func (h *AuthHandler) Scan(c *gin.Context) {
	var body scanBody
	_ = c.ShouldBindJSON(&body)
	if body.RFIDUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "RFID UID is required"})
		return
	}

	if h.ScanLimiter != nil && !h.ScanLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	user, ok := h.Store.GetUserByRFID(body.RFIDUID)
	if !ok {
		logrus.WithField("rfid_uid", body.RFIDUID).Warn("scan: unregistered card")
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid RFID card"})
		return
	}

	pair, err := auth.CreateTokenPair(user.ID, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}

	payload := gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    userJSON(user, h.Store.ListEventsForUser(user.ID)),
	}

	logrus.WithFields(logrus.Fields{"username": user.Username, "kiosk": body.Kiosk}).Info("scan: user authenticated")
	h.publishLogin(body.Kiosk, payload)

	c.JSON(http.StatusOK, payload)
}

// publishLogin is best effort: login succeeds whether or not any kiosk was
// listening, so every failure mode ends in a log line, not an API error.
func (h *AuthHandler) publishLogin(kioskID string, payload gin.H) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("reason", r).Error("scan: login notification failed")
		}
	}()

	if h.Relay == nil {
		logrus.Warn("scan: relay unavailable, login notification skipped")
		return
	}
	h.Relay.PublishLogin(kioskID, payload)
}

// Login authenticates by username/password. Same response shape as Scan but
// no relay push: the user is at the screen they logged in on.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, ok := h.Store.GetUserByUsername(body.Username)
	if !ok || !auth.CheckPassword(user.PasswordHash, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	pair, err := auth.CreateTokenPair(user.ID, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    userJSON(user, h.Store.ListEventsForUser(user.ID)),
	})
}

// UserEvents returns a user's timetable by user_id or username.
func (h *AuthHandler) UserEvents(c *gin.Context) {
	userID := c.Query("user_id")
	username := c.Query("username")
	if userID == "" && username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id or username parameter required"})
		return
	}

	var (
		user  model.User
		found bool
	)
	if userID != "" {
		user, found = h.Store.GetUser(userID)
	} else {
		user, found = h.Store.GetUserByUsername(username)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userJSON(user, h.Store.ListEventsForUser(user.ID))})
}
