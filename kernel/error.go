package kernel

// Error describes an unrecoverable condition detected by the kernel. No heap
// is available on the boot path so errors.New cannot be used; every Error
// must be declared as a package-level pointer to a statically initialized
// Error value.
type Error struct {
	// The module that detected the error.
	Module string

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
