package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusLabel(t *testing.T) {
	cases := map[string]string{
		"PENDING":          "PENDING",
		"ACCEPTED":         "ACCEPTED",
		"DECLINED":         "DECLINED",
		"CANCELLED":        "CANCELLED",
		"OUT_FOR_DELIVERY": "OTHER",
		"":                 "OTHER",
	}
	for in, want := range cases {
		if got := StatusLabel(in); got != want {
			t.Errorf("StatusLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNotificationsCreated_BySource(t *testing.T) {
	before := testutil.ToFloat64(NotificationsCreated.WithLabelValues(SourceAPI))
	NotificationsCreated.WithLabelValues(SourceAPI).Inc()
	if got := testutil.ToFloat64(NotificationsCreated.WithLabelValues(SourceAPI)); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
