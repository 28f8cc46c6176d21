package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fitdesk/coach-api/internal/models"
)

func runRequireRoles(t *testing.T, claims *models.JWTClaims, roles ...models.UserRole) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	RequireRoles(roles...)(c)
	return rec, c
}

func TestRequireRolesAllowsCoach(t *testing.T) {
	_, c := runRequireRoles(t, &models.JWTClaims{UserID: "coach-1", Role: models.RoleCoach}, models.RoleCoach, models.RoleAdmin)
	assert.False(t, c.IsAborted())
}

func TestRequireRolesRejectsStudentRole(t *testing.T) {
	rec, c := runRequireRoles(t, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}, models.RoleCoach, models.RoleAdmin)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	rec, c := runRequireRoles(t, nil, models.RoleCoach)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
