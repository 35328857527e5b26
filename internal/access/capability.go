package access

import "strings"

// Action is what a user wants to do with a resource type.
type Action string

const (
	ActionView     Action = "view"
	ActionList     Action = "list"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionDownload Action = "download"
	ActionUse      Action = "use"
)

// Resource types known to the application.
const (
	ResourceMaterial     = "material"
	ResourceContract     = "contract"
	ResourceKit          = "kit"
	ResourceCalculator   = "calculator"
	ResourceStoreProfile = "store_profile"
)

// Capability is an allowed action on a resource type, written "resource:action".
type Capability string

// Wildcard matches any resource type or any action.
const Wildcard = "*"

// CapabilityAll is held by administrators.
const CapabilityAll Capability = "*:*"

// NewCapability builds "resource:action".
func NewCapability(resourceType string, action Action) Capability {
	return Capability(resourceType + ":" + string(action))
}

// Parse splits the capability. Malformed values yield empty parts.
func (c Capability) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(c), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether holding c grants requested.
// "*:*" grants everything, "material:*" every material action and
// "*:list" the list action on every resource type.
func (c Capability) Matches(requested Capability) bool {
	if c == CapabilityAll || c == requested {
		return true
	}
	res, act := c.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == Wildcard || res == reqRes
	actOK := string(act) == Wildcard || act == reqAct
	return resOK && actOK
}
