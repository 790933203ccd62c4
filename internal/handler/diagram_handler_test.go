package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"busfleet/internal/database"
	"busfleet/internal/middleware"
	"busfleet/internal/repository"
	"busfleet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type diagramRig struct {
	router     *gin.Engine
	db         *gorm.DB
	cacheDrops int
}

func newDiagramRig(t *testing.T) *diagramRig {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	middleware.InitPermissionMiddleware(db)
	middleware.ClearPermissionCache("")
	require.NoError(t, service.NewRoleService(db).SeedDefaultRolesAndPermissions(context.Background()))

	svc := service.NewDiagramService(
		repository.NewDiagramRepository(db),
		repository.NewSpaceRepository(db),
		repository.NewAmenityRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil,
		nil,
	)

	rig := &diagramRig{db: db}
	h := NewDiagramHandler(svc, func(context.Context) { rig.cacheDrops++ })

	router := gin.New()
	noCache := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(router.Group(""), noCache)
	rig.router = router
	return rig
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (rig *diagramRig) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	rig.router.ServeHTTP(w, req)
	return w
}

func createPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":       "sleeper 40",
		"num_floors": 1,
		"floors": []map[string]interface{}{
			{"floor_number": 1, "num_rows": 10, "seats_left": 2, "seats_right": 2},
		},
	}
}

func TestDiagramRoutesRequireAuth(t *testing.T) {
	rig := newDiagramRig(t)

	w := rig.do(t, http.MethodGet, "/api/diagrams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = rig.do(t, http.MethodPost, "/api/diagrams", "", createPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDiagramWriteRequiresPermission(t *testing.T) {
	rig := newDiagramRig(t)
	staff := signToken(t, "staff")

	// staff holds diagrams.read but not diagrams.write
	w := rig.do(t, http.MethodGet, "/api/diagrams", staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = rig.do(t, http.MethodPost, "/api/diagrams", staff, createPayload())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDiagramCreateAndGet(t *testing.T) {
	rig := newDiagramRig(t)
	manager := signToken(t, "manager")

	w := rig.do(t, http.MethodPost, "/api/diagrams", manager, createPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			Diagram struct {
				ID         string `json:"id"`
				TotalSeats int    `json:"total_seats"`
			} `json:"diagram"`
			SpacesCreated int `json:"spaces_created"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 50, created.Data.SpacesCreated)
	assert.Equal(t, 40, created.Data.Diagram.TotalSeats)
	assert.Equal(t, 1, rig.cacheDrops)

	w = rig.do(t, http.MethodGet, "/api/diagrams/"+created.Data.Diagram.ID, manager, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Data struct {
			Spaces []json.RawMessage `json:"spaces"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Data.Spaces, 50)
}

func TestDiagramErrorMapping(t *testing.T) {
	rig := newDiagramRig(t)
	manager := signToken(t, "manager")

	// Malformed id maps to 400, unknown id to 404.
	w := rig.do(t, http.MethodGet, "/api/diagrams/not-a-uuid", manager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = rig.do(t, http.MethodGet, "/api/diagrams/"+uuid.NewString(), manager, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Binding failure on create.
	w = rig.do(t, http.MethodPost, "/api/diagrams", manager, map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, rig.cacheDrops, "failed mutations do not drop the cache")
}

func TestDiagramDelete(t *testing.T) {
	rig := newDiagramRig(t)
	manager := signToken(t, "manager")

	w := rig.do(t, http.MethodPost, "/api/diagrams", manager, createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data struct {
			Diagram struct {
				ID string `json:"id"`
			} `json:"diagram"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = rig.do(t, http.MethodDelete, "/api/diagrams/"+created.Data.Diagram.ID, manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, rig.cacheDrops)

	w = rig.do(t, http.MethodGet, "/api/diagrams/"+created.Data.Diagram.ID, manager, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
