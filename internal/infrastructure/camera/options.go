package camera

// Options are capture hints. Sources that cannot honour them ignore them.
type Options struct {
	Width      int
	Height     int
	FacingMode string
}

// DefaultOptions asks for a 640x480 front-facing frame.
func DefaultOptions() Options {
	return Options{Width: 640, Height: 480, FacingMode: "user"}
}
