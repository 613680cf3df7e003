// Package apitest runs an in-process implementation of the auth and task
// APIs. Tests point a client at it instead of a real backend.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	AuthPath = "/auth"
	APIPath  = "/api/v0"

	// SessionCookie is the name of the cookie carrying the signed session
	SessionCookie = "taskdeck_session"

	shortSession = time.Hour
	longSession  = 30 * 24 * time.Hour
)

// TaskRecord is the stored form of a task
type TaskRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"`
	Owner     string    `gorm:"index;not null"`
	Text      string    `gorm:"not null"`
	Done      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (r *TaskRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	return nil
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Server is a running fake backend
type Server struct {
	*httptest.Server

	db     *gorm.DB
	secret []byte

	mu        sync.Mutex
	users     map[string][]byte
	overrides map[string]int
	gates     map[string]chan struct{}
	hits      map[string]int
}

// New starts a fake backend knowing the given username -> password pairs.
// The server is closed when the test ends.
func New(t testing.TB, users map[string]string) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&TaskRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	s := &Server{
		db:        db,
		secret:    []byte(ulid.Make().String()),
		users:     make(map[string][]byte),
		overrides: make(map[string]int),
		gates:     make(map[string]chan struct{}),
		hits:      make(map[string]int),
	}
	for name, password := range users {
		if err := s.AddUser(name, password); err != nil {
			t.Fatalf("failed to add user %s: %v", name, err)
		}
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(func() {
		s.releaseAll()
		s.Server.Close()
		_ = sqlDB.Close()
	})
	return s
}

// AddUser registers a user with the given password
func (s *Server) AddUser(name, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	s.mu.Lock()
	s.users[name] = hash
	s.mu.Unlock()
	return nil
}

func routeKey(method, route string) string {
	return method + " " + route
}

// Override makes every request to method+route answer with status.
// route is the gin pattern, for example "/api/v0/task/:id".
func (s *Server) Override(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[routeKey(method, route)] = status
}

// ClearOverride removes an Override
func (s *Server) ClearOverride(method, route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, routeKey(method, route))
}

// Hold blocks requests to method+route until the returned func is called
func (s *Server) Hold(method, route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[routeKey(method, route)] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			// releaseAll may already have closed it
			if s.gates[routeKey(method, route)] == ch {
				delete(s.gates, routeKey(method, route))
				close(ch)
			}
		})
	}
}

func (s *Server) releaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, ch := range s.gates {
		close(ch)
		delete(s.gates, key)
	}
}

// Hits reports how many requests reached method+route
func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, route)]
}

// SeedTask stores a task for owner directly and returns its ID
func (s *Server) SeedTask(owner, text string, done bool) (string, error) {
	rec := TaskRecord{Owner: owner, Text: text, Done: done}
	if err := s.db.Create(&rec).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Tasks returns the stored tasks of owner
func (s *Server) Tasks(owner string) ([]TaskRecord, error) {
	var recs []TaskRecord
	err := s.db.Where("owner = ?", owner).Order("created_at, id").Find(&recs).Error
	return recs, err
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.hooks())

	auth := r.Group(AuthPath)
	auth.GET("/status", s.status)
	auth.POST("/login", s.login)
	auth.POST("/logout", s.logout)

	api := r.Group(APIPath)
	api.Use(s.requireSession())
	{
		api.GET("/tasks", s.listTasks)
		api.POST("/task", s.createTask)
		api.DELETE("/task/:id", s.deleteTask)
		api.PUT("/task/:id", s.updateTask)
	}

	return r
}

// hooks counts hits, applies Hold gates and Override statuses
func (s *Server) hooks() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := routeKey(c.Request.Method, c.FullPath())

		s.mu.Lock()
		s.hits[key]++
		gate := s.gates[key]
		status, overridden := s.overrides[key]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		if overridden {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

type userStatus struct {
	Username string `json:"username"`
	LoggedIn bool   `json:"logged-in"`
}

func (s *Server) sessionUser(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return "", false
	}

	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", false
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return "", false
	}
	return claims.Username, true
}

func (s *Server) status(c *gin.Context) {
	user, ok := s.sessionUser(c)
	c.JSON(http.StatusOK, userStatus{Username: user, LoggedIn: ok})
}

type loginRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	SessionRenew bool   `json:"sessionRenew"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	hash, known := s.users[req.Username]
	s.mu.Unlock()

	if !known || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ttl, maxAge := shortSession, 0
	if req.SessionRenew {
		ttl, maxAge = longSession, int(longSession.Seconds())
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Username: req.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign session"})
		return
	}

	c.SetCookie(SessionCookie, signed, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, userStatus{Username: req.Username, LoggedIn: true})
}

func (s *Server) logout(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, userStatus{})
}

func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.sessionUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

type taskOutput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

func (s *Server) listTasks(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to convert limit value to number"})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to convert page value to number"})
		return
	}

	q := s.db.Where("owner = ?", c.GetString("user")).Order("created_at, id")
	if limit > 0 {
		q = q.Limit(limit).Offset(page * limit)
	}

	var recs []TaskRecord
	if err := q.Find(&recs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]taskOutput, len(recs))
	for i, rec := range recs {
		out[i] = taskOutput{ID: rec.ID, Text: rec.Text, Done: rec.Done}
	}
	c.JSON(http.StatusOK, gin.H{"Count": len(out), "Tasks": out})
}

type createTaskRequest struct {
	Text string `json:"text" binding:"required"`
	Done *bool  `json:"done"`
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := TaskRecord{Owner: c.GetString("user"), Text: req.Text}
	if req.Done != nil {
		rec.Done = *req.Done
	}
	if err := s.db.Create(&rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, taskOutput{ID: rec.ID, Text: rec.Text, Done: rec.Done})
}

func (s *Server) findTask(c *gin.Context) (*TaskRecord, bool) {
	var rec TaskRecord
	err := s.db.Where("id = ? AND owner = ?", c.Param("id"), c.GetString("user")).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return &rec, true
}

func (s *Server) deleteTask(c *gin.Context) {
	rec, ok := s.findTask(c)
	if !ok {
		return
	}
	if err := s.db.Delete(rec).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

type updateTaskRequest struct {
	Text string `json:"text"`
	Done *bool  `json:"done"`
}

func (s *Server) updateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, ok := s.findTask(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Text != "" {
		updates["text"] = req.Text
	}
	if req.Done != nil {
		updates["done"] = *req.Done
	}
	if len(updates) > 0 {
		if err := s.db.Model(rec).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Status(http.StatusAccepted)
}
