package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInjectAndGetTags(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/certifications", nil)

	require.Nil(t, GetTags(r))

	r = InjectTags(r)
	tags := GetTags(r)
	require.NotNil(t, tags)
	require.Equal(t, CacheNA, tags.CacheResult)
}

func TestSetTags(t *testing.T) {
	r := InjectTags(httptest.NewRequest("GET", "/api/projects", nil))

	SetSection(r, "projects")
	SetEndpoint(r, "list")
	SetCacheResult(r, CacheHit)

	tags := GetTags(r)
	require.Equal(t, "projects", tags.Section)
	require.Equal(t, "list", tags.Endpoint)
	require.Equal(t, CacheHit, tags.CacheResult)
}

func TestSetTagsWithoutInjectIsNoOp(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/projects", nil)

	// Must not panic without the middleware
	SetSection(r, "projects")
	SetCacheResult(r, CacheMiss)
	require.Nil(t, GetTags(r))
}

func TestStatusClass(t *testing.T) {
	require.Equal(t, "2xx", StatusClass(200))
	require.Equal(t, "3xx", StatusClass(304))
	require.Equal(t, "4xx", StatusClass(401))
	require.Equal(t, "5xx", StatusClass(502))
	require.Equal(t, "1xx", StatusClass(100))
}
