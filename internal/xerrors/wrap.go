package xerrors

// Unwrap flattens a joined error into its parts. Any other error is returned as its only part.
func Unwrap(err error) []error {
	if err == nil {
		return nil
	}
	u, ok := err.(interface {
		Unwrap() []error
	})
	if !ok {
		return []error{err}
	}
	return u.Unwrap()
}
