package odometer

import "errors"

// ErrDecode is returned when the input bytes cannot be decoded as an image.
// It is the only fatal error class of the pipeline; individual recognition
// failures are recorded per pass instead.
var ErrDecode = errors.New("cannot decode image")
