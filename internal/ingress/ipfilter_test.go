package ingress

import (
	"net"
	"testing"
)

func TestIPFilter_NoLists_AllowsEverything(t *testing.T) {
	f, err := NewIPFilter(nil, nil)
	if err != nil {
		t.Fatalf("NewIPFilter() error = %v", err)
	}
	if !f.Allowed(net.ParseIP("203.0.113.5")) {
		t.Error("expected address to be allowed when no lists are configured")
	}
}

func TestIPFilter_DenyList(t *testing.T) {
	f, err := NewIPFilter(nil, []string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("NewIPFilter() error = %v", err)
	}

	if f.Allowed(net.ParseIP("10.1.2.3")) {
		t.Error("10.1.2.3 should be denied")
	}
	if !f.Allowed(net.ParseIP("192.168.1.1")) {
		t.Error("192.168.1.1 should be allowed")
	}
}

func TestIPFilter_AllowList(t *testing.T) {
	f, err := NewIPFilter([]string{"192.168.0.0/16"}, nil)
	if err != nil {
		t.Fatalf("NewIPFilter() error = %v", err)
	}

	if !f.Allowed(net.ParseIP("192.168.5.5")) {
		t.Error("192.168.5.5 should be allowed")
	}
	if f.Allowed(net.ParseIP("10.0.0.1")) {
		t.Error("10.0.0.1 should not be allowed when outside the allow-list")
	}
}

func TestIPFilter_DenyOverridesAllow(t *testing.T) {
	f, err := NewIPFilter([]string{"10.0.0.0/8"}, []string{"10.1.0.0/16"})
	if err != nil {
		t.Fatalf("NewIPFilter() error = %v", err)
	}

	if f.Allowed(net.ParseIP("10.1.2.3")) {
		t.Error("10.1.2.3 matches the deny-list and should be rejected")
	}
	if !f.Allowed(net.ParseIP("10.2.0.1")) {
		t.Error("10.2.0.1 is in the allow-list and not denied, should be allowed")
	}
}

func TestIPFilter_BareIPEntries(t *testing.T) {
	f, err := NewIPFilter(nil, []string{"203.0.113.9"})
	if err != nil {
		t.Fatalf("NewIPFilter() error = %v", err)
	}
	if f.Allowed(net.ParseIP("203.0.113.9")) {
		t.Error("single denied IP should not be allowed")
	}
	if !f.Allowed(net.ParseIP("203.0.113.10")) {
		t.Error("neighboring IP should be allowed")
	}
}

func TestIPFilter_InvalidCIDR(t *testing.T) {
	if _, err := NewIPFilter(nil, []string{"not-a-cidr/abc"}); err == nil {
		t.Fatal("expected ConfigError for malformed CIDR")
	}
}
