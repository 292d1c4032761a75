package errorvalues

import "errors"

var (
	ErrUserNotFound      = errors.New("user doesn't exists")
	ErrRevelationExists  = errors.New("revelation for this day already saved")
	ErrDecryptFailed     = errors.New("unable to decrypt revelation")
	ErrInvalidTimeFormat = errors.New("invalid reminder time format")
	ErrTimeOutOfRange    = errors.New("reminder time out of allowed range")
	ErrTimePastCutoff    = errors.New("reminder time must be before 23:30")
	ErrSendFailed        = errors.New("notification delivery failed")
)
