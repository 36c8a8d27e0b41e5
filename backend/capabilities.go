package backend

type CapabilityType string

const (
	CapabilityRename      CapabilityType = "rename"
	CapabilityMakeDir     CapabilityType = "mkdir"
	CapabilityDelete      CapabilityType = "delete"
	CapabilityMeasureSize CapabilityType = "size"
	CapabilityFetch       CapabilityType = "fetch"
	CapabilityLogin       CapabilityType = "login"

	// Only set for connections whose locations are reachable by the host OS.
	CapabilityTerminal CapabilityType = "terminal"
	CapabilityOpen     CapabilityType = "open"
)

type Capability struct {
	Type   CapabilityType `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

type CapabilitySettings struct {
	IsReadonly bool `json:"isreadonly,omitempty"`
	IsRemote   bool `json:"isremote,omitempty"`
}

type Capabilities struct {
	Capabilities []Capability       `json:"capabilities"`
	Settings     CapabilitySettings `json:"settings,omitempty"`
}

// GetRemoteCapabilities returns the capability set shared by every remote backend.
func GetRemoteCapabilities(readonly bool) *Capabilities {
	caps := &Capabilities{
		Capabilities: []Capability{
			{
				Type: CapabilityMeasureSize,
			},
			{
				Type: CapabilityFetch,
			},
			{
				Type: CapabilityLogin,
			},
		},
		Settings: CapabilitySettings{
			IsReadonly: readonly,
			IsRemote:   true,
		},
	}

	if !readonly {
		caps.Capabilities = append(caps.Capabilities,
			Capability{Type: CapabilityRename},
			Capability{Type: CapabilityMakeDir},
			Capability{Type: CapabilityDelete},
		)
	}

	return caps
}

// Contains checks if a capability is supported
func (c *Capabilities) Contains(cap CapabilityType) (bool, Capability) {
	if c == nil {
		return false, Capability{}
	}

	for _, capability := range c.Capabilities {
		if capability.Type == cap {
			return true, capability
		}
	}

	return false, Capability{}
}

// Has is Contains without the capability parameters.
func (c *Capabilities) Has(cap CapabilityType) bool {
	ok, _ := c.Contains(cap)
	return ok
}
