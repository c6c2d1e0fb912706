package output

// Options selects the parts of an exchange to print and how.
type Options struct {
	PrintRequestHeader  bool
	PrintRequestBody    bool
	PrintResponseHeader bool
	PrintResponseBody   bool

	EnableFormat bool
	EnableColor  bool

	Download   bool
	OutputFile string
	Overwrite  bool
}

// ForFile returns the options used when printing into a file.
func (o Options) ForFile() Options {
	o.EnableColor = false
	return o
}
