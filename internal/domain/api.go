package domain

import "strings"

// API identifies the graphics API a trace was recorded from.
type API int

const (
	APIUnknown API = iota
	APIGL
	APIEGL
	APID3D
	APIVulkan
)

// String returns a human-readable API name.
func (a API) String() string {
	switch a {
	case APIGL:
		return "GL"
	case APIEGL:
		return "EGL"
	case APID3D:
		return "D3D"
	case APIVulkan:
		return "Vulkan"
	default:
		return "Unknown"
	}
}

// GuessAPI makes a best-effort guess from a call name.
func GuessAPI(name string) API {
	switch {
	case strings.HasPrefix(name, "egl"):
		return APIEGL
	case strings.HasPrefix(name, "vk"):
		return APIVulkan
	case strings.HasPrefix(name, "gl"), strings.HasPrefix(name, "wgl"), strings.HasPrefix(name, "CGL"):
		return APIGL
	case strings.HasPrefix(name, "ID3D"), strings.HasPrefix(name, "D3D"), strings.HasPrefix(name, "IDXGI"),
		strings.HasPrefix(name, "IDirect3D"), strings.HasPrefix(name, "Direct3D"):
		return APID3D
	default:
		return APIUnknown
	}
}
