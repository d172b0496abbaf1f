package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"claimintake/internal/auth"
	"claimintake/internal/domain"
	"claimintake/internal/handler"
	"claimintake/internal/router"
	"claimintake/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, *mocks.MockClaimService) {
	t.Helper()
	verifier := new(mocks.MockTokenVerifier)
	verifier.On("Verify", "claimant").Return(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "claimant-1"},
	}, nil)
	verifier.On("Verify", "adjuster").Return(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "adjuster-1"},
		Role:             auth.RoleAdjuster,
	}, nil)

	claimSvc := new(mocks.MockClaimService)
	r := router.Setup(
		verifier,
		[]string{"http://localhost:3000"},
		handler.NewIntakeHandler(new(mocks.MockIntakeService), 1<<20),
		handler.NewClaimHandler(claimSvc),
		handler.NewProfileHandler(domain.DefaultProfiles()),
		handler.NewHealthHandler(nil, nil),
	)
	return r, claimSvc
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_ClaimTypesArePublic(t *testing.T) {
	r, _ := setup(t)

	w := serve(r, http.MethodGet, "/api/v1/claim-types", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vehicle_damage")
}

func TestRouter_DraftsRequireToken(t *testing.T) {
	r, _ := setup(t)

	w := serve(r, http.MethodPost, "/api/v1/drafts", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminRequiresAdjuster(t *testing.T) {
	r, _ := setup(t)

	w := serve(r, http.MethodGet, "/api/v1/admin/claims", "claimant")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_AdminAllowsAdjuster(t *testing.T) {
	r, claimSvc := setup(t)
	claimSvc.On("ListForReview", mock.Anything, domain.DecisionManualReview, 0, 20).Return([]domain.Claim{}, 0, nil)

	w := serve(r, http.MethodGet, "/api/v1/admin/claims?status=manual_review", "adjuster")

	assert.Equal(t, http.StatusOK, w.Code)
	claimSvc.AssertExpectations(t)
}

func TestRouter_Liveness(t *testing.T) {
	r, _ := setup(t)

	w := serve(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
}
