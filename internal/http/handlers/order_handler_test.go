package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderHandler_Get_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.GET("/orders/:id", handler.Get)

	orderID := uuid.New()
	req, _ := http.NewRequest("GET", "/orders/"+orderID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderHandler_Get_InvalidOrderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", "client")
		c.Next()
	})
	handler := &OrderHandler{orders: nil}
	r.GET("/orders/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/orders/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Create_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", "client")
		c.Next()
	})
	handler := &OrderHandler{orders: nil}
	r.POST("/orders", handler.Create)

	req, _ := http.NewRequest("POST", "/orders", strings.NewReader(`{"package":"basic"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Create_InvalidGigID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", "client")
		c.Next()
	})
	handler := &OrderHandler{orders: nil}
	r.POST("/orders", handler.Create)

	req, _ := http.NewRequest("POST", "/orders", strings.NewReader(`{"gig_id":"not-a-uuid","package":"basic"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "gig_id")
}

func TestOrderHandler_Transition_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.PATCH("/orders/:id/status", handler.Transition)

	orderID := uuid.New()
	req, _ := http.NewRequest("PATCH", "/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"ACCEPTED"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderHandler_ExtendDelivery_MissingReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", "freelancer")
		c.Next()
	})
	handler := &OrderHandler{orders: nil}
	r.POST("/orders/:id/extend", handler.ExtendDelivery)

	orderID := uuid.New()
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/extend", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
