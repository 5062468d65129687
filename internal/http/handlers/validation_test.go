package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRegisterValidators_MobileRule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("register: %v", err)
	}
	// second call is a no-op
	if err := RegisterValidators(); err != nil {
		t.Fatalf("register twice: %v", err)
	}

	type payload struct {
		Mobile string `json:"mobile" binding:"required,mobile"`
	}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	cases := map[string]int{
		`{"mobile":"98765 43210"}`: http.StatusOK,
		`{"mobile":"+91-98765"}`:   http.StatusOK,
		`{"mobile":"９８７"}`:        http.StatusOK, // full-width digits fold to ASCII
		`{"mobile":"call me"}`:     http.StatusBadRequest,
		`{"mobile":""}`:            http.StatusBadRequest,
	}
	for body, want := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("%s: status=%d want %d", body, w.Code, want)
		}
	}
}
