package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"odolog/models"
	"odolog/pkg/export"
	"odolog/pkg/odometer"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const maxPhotoBytes = 5 * 1024 * 1024

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/trips", createTripHandler)
	authGroup.GET("/trips", listTripsHandler)
	authGroup.GET("/trips/summary", tripSummaryHandler)
	authGroup.GET("/trips/export.csv", exportTripsCSVHandler)
	authGroup.POST("/trips/:id/export", exportTripWebhookHandler)
	authGroup.GET("/fares", fareLookupHandler)
	authGroup.POST("/photos", uploadPhotoHandler)
	authGroup.GET("/photos", listPhotosHandler)
	authGroup.GET("/photos/:id", getPhotoHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(user, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// signAccessToken issues a JWT carrying the username and resolved role name.
func signAccessToken(user models.User, ttl time.Duration) (string, error) {
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	rt := models.RefreshToken{UserID: userID, TokenHash: hex.EncodeToString(h[:]), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := signAccessToken(user, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// uploadPhotoHandler receives a cluster photo, runs odometer extraction and
// responds with the extraction report. The photo row is persisted either
// way; a no-candidate outcome marks it failed for later operator review.
func uploadPhotoHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file missing"})
		return
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file too large (max 5MB)"})
		return
	}
	ct := file.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "not an image upload"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "read failed"})
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "read failed"})
		return
	}

	src, err := odometer.Decode(file.Filename, ct, data)
	if err != nil {
		if errors.Is(err, odometer.ErrDecode) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	res, err := extractor.Run(c.Request.Context(), src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	storePath, err := storePhotoFile(user.ID, file.Filename, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "save failed"})
		return
	}
	photo := models.Photo{
		UserID:      user.ID,
		FileName:    file.Filename,
		StorePath:   storePath,
		ContentType: ct,
		Width:       src.Width,
		Height:      src.Height,
		Odo:         res.Value,
	}
	if !res.Found() {
		photo.Failed = true
		photo.FailedReason = "no odometer candidate"
	}
	// re-uploads of the same file update the existing row
	var existing models.Photo
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, file.Filename).First(&existing).Error; err == nil {
		photo.ID = existing.ID
		photo.TripID = existing.TripID
		db.Save(&photo)
	} else if err := db.Create(&photo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "db save failed"})
		return
	}

	report := res.Report()
	status := http.StatusOK
	if !res.Found() {
		// decoded fine, nothing plausible read: caller falls back to manual entry
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"ok":       report.OK,
		"odo":      report.Odo,
		"value":    report.Value,
		"text":     report.Text,
		"photo_id": photo.ID,
		"debug":    report.Debug,
	})
}

// storePhotoFile writes the upload under UPLOAD_BASE/<userID>/ and returns
// the public-relative store path.
func storePhotoFile(userID uint, name string, data []byte) (string, error) {
	dir := filepath.Join(uploadBaseDir(), strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	full := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", err
	}
	return "public/" + strconv.FormatUint(uint64(userID), 10) + "/" + filepath.Base(name), nil
}

// listPhotosHandler returns photos; admin sees all, user only their own.
func listPhotosHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var photos []models.Photo
	q := db.Model(&models.Photo{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&photos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, photos)
}

func getPhotoHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var photo models.Photo
	if err := db.First(&photo, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && photo.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, photo)
}

// createTripHandler records a trip for the authenticated user. Fare is
// looked up from the route table when origin/destination match a seeded
// route and no explicit fare was sent.
func createTripHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Date        string `json:"date"` // optional ISO8601
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
		Fare        int64  `json:"fare"`
		OdoStart    int64  `json:"odo_start"`
		OdoEnd      int64  `json:"odo_end" binding:"required"`
		Manual      bool   `json:"manual"`
		PhotoID     *uint  `json:"photo_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trip := models.Trip{
		UserID:      user.ID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Fare:        req.Fare,
		OdoStart:    req.OdoStart,
		OdoEnd:      req.OdoEnd,
		Manual:      req.Manual,
		PhotoID:     req.PhotoID,
		Date:        time.Now(),
	}
	if req.Date != "" {
		if t, err := time.Parse(time.RFC3339, req.Date); err == nil {
			trip.Date = t
		}
	}
	if trip.Fare == 0 && trip.Origin != "" && trip.Destination != "" {
		var route models.FareRoute
		if err := db.Where("origin = ? AND destination = ?", trip.Origin, trip.Destination).First(&route).Error; err == nil {
			trip.Fare = route.Fare
		}
	}
	if req.PhotoID != nil {
		var photo models.Photo
		if err := db.First(&photo, *req.PhotoID).Error; err != nil || photo.UserID != user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo not found"})
			return
		}
		if photo.Odo != nil && !req.Manual {
			trip.OdoEnd = *photo.Odo
		}
	}
	if err := db.Create(&trip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	if req.PhotoID != nil {
		db.Model(&models.Photo{}).Where("id = ?", *req.PhotoID).Update("trip_id", trip.ID)
	}
	c.JSON(http.StatusOK, gin.H{"id": trip.ID, "fare": trip.Fare, "odo_end": trip.OdoEnd})
}

// listTripsHandler lists recent trips for the authenticated user (admin sees all)
func listTripsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Trip
	q := db.Model(&models.Trip{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// tripSummaryHandler returns distance and fare totals grouped by month.
func tripSummaryHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	type Result struct {
		Month    string
		Distance int64
		Fare     int64
	}
	var results []Result
	q := db.Model(&models.Trip{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	// Use to_char for Postgres to group by YYYY-MM
	rows, err := q.Select(`to_char(date, 'YYYY-MM') as month,
		sum(greatest(odo_end - odo_start, 0)) as distance,
		sum(fare) as fare`).Group("month").Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	defer rows.Close()
	for rows.Next() {
		var r Result
		rows.Scan(&r.Month, &r.Distance, &r.Fare)
		results = append(results, r)
	}
	c.JSON(http.StatusOK, results)
}

// fareLookupHandler resolves a fare for an origin/destination pair, or lists
// the whole table when no pair is given.
func fareLookupHandler(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	if origin == "" && destination == "" {
		var routes []models.FareRoute
		if err := db.Order("origin, destination").Find(&routes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, routes)
		return
	}
	var route models.FareRoute
	if err := db.Where("origin = ? AND destination = ?", origin, destination).First(&route).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"origin": route.Origin, "destination": route.Destination, "fare": route.Fare})
}

func exportTripsCSVHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var trips []models.Trip
	q := db.Model(&models.Trip{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("date").Find(&trips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="trips.csv"`)
	if err := export.TripCSV().Write(c.Writer, trips); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
	}
}

func exportTripWebhookHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	url := os.Getenv("ODO_WEBHOOK_URL")
	if url == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook not configured"})
		return
	}
	var trip models.Trip
	if err := db.First(&trip, c.Param("id")).Error; err != nil || trip.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}
	hook := export.NewWebhook(url)
	if err := hook.Deliver(c.Request.Context(), export.TripPayload(trip, user.Username)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip exported"})
}
