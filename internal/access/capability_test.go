package access_test

import (
	"testing"

	"github.com/diewo77/festakit/internal/access"
)

func TestCapability_Parse(t *testing.T) {
	res, act := access.Capability("contract:view").Parse()
	if res != "contract" || act != access.ActionView {
		t.Errorf("Parse() = %q, %q", res, act)
	}
	res, act = access.Capability("broken").Parse()
	if res != "" || act != "" {
		t.Errorf("malformed Parse() = %q, %q", res, act)
	}
}

func TestCapability_Matches(t *testing.T) {
	tests := []struct {
		held      access.Capability
		requested access.Capability
		want      bool
	}{
		{"*:*", "material:download", true},
		{"*:*", "*:*", true},
		{"material:download", "material:download", true},
		{"material:download", "material:create", false},
		{"material:*", "material:create", true},
		{"material:*", "contract:create", false},
		{"*:list", "kit:list", true},
		{"*:list", "kit:delete", false},
		{"material:*", "*:*", false},
		{"broken", "material:view", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.held)+"->"+string(tt.requested), func(t *testing.T) {
			if got := tt.held.Matches(tt.requested); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticRole_Capabilities(t *testing.T) {
	r := access.NewStaticRole(1, "subscriber", "kit:*", "contract:*", "kit:*")
	caps := r.Capabilities()
	if len(caps) != 2 || caps[0] != "contract:*" || caps[1] != "kit:*" {
		t.Errorf("Capabilities() = %v", caps)
	}
	if !r.Has(access.NewCapability(access.ResourceKit, access.ActionDelete)) {
		t.Error("kit:* should grant kit:delete")
	}
}
