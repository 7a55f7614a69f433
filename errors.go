package pitwall

// SubplotExistsError is returned from [*Viewer.AddSubplot]
// if a subplot with the same name is already registered.
type SubplotExistsError struct {
	Name string
}

func (e SubplotExistsError) Error() string {
	return "a subplot named " + e.Name + " already exists"
}
