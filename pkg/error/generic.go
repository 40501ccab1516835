package error

// GenericError is implemented by all typed errors so the REST recovery
// middleware can map them to a status code and machine-readable code.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
