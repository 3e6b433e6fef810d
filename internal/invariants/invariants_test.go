package invariants

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orma-app/orma/internal/api"
	"github.com/orma-app/orma/internal/auth"
	"github.com/orma-app/orma/internal/events"
	"github.com/orma-app/orma/internal/services"
	"github.com/orma-app/orma/internal/store/sqlite"
)

const quotaMax = 3

func startService(t *testing.T) string {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	bus := events.NewBus(16)
	svc := services.NewMarkService(st, bus, quotaMax, 24*time.Hour)
	srv := httptest.NewServer(api.NewRouter(st, bus, auth.NewMockAuthorizer(), svc, nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestInvariants(t *testing.T) {
	ic := NewInvariantChecker(startService(t), auth.DevToken)

	t.Run("MarkImmutability", ic.TestMarkImmutabilityInvariant)
	t.Run("AppendOnly", ic.TestAppendOnlyInvariant)
	t.Run("AuthRequired", ic.TestAuthRequiredInvariant)
	t.Run("Ordering", ic.TestOrderingInvariant)
}

func TestQuotaIsAdvisory(t *testing.T) {
	// Fresh service so earlier probes don't count against the window.
	ic := NewInvariantChecker(startService(t), auth.DevToken)
	ic.TestQuotaIsAdvisoryInvariant(t, quotaMax)
}
