package registry

// Service is the interface implemented by every agent service managed
// by the service registry.
type Service interface {
	Start() error
	Stop() error
}
